// Package api presents a uniform verb-based interface on top of the
// transport, decoding response envelopes and funneling every failure
// through one UI-oriented error handler.
package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"voltswap/apierr"
	"voltswap/notify"
	"voltswap/session"
	"voltswap/transport"
)

// Client wraps the transport with payload decoding and error handling.
type Client struct {
	transport *transport.Transport
	session   *session.Store
	notifier  notify.Notifier
	logger    *zap.Logger
}

// New returns a normalized client.
func New(t *transport.Transport, sess *session.Store, notifier notify.Notifier, logger *zap.Logger) *Client {
	return &Client{transport: t, session: sess, notifier: notifier, logger: logger}
}

// Get fetches path and decodes the unwrapped payload into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.call(ctx, transport.Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post sends body and decodes the unwrapped payload into out. Unlike the
// other verbs this historically returned the raw response; both paths now
// decode uniformly.
func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.call(ctx, transport.Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put sends body and decodes the unwrapped payload into out.
func (c *Client) Put(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.call(ctx, transport.Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Patch sends body and decodes the unwrapped payload into out.
func (c *Client) Patch(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.call(ctx, transport.Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete issues a DELETE and decodes the unwrapped payload into out.
func (c *Client) Delete(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.call(ctx, transport.Request{Method: http.MethodDelete, Path: path, Query: query}, out)
}

// Upload posts a multipart form, overriding the JSON content-type default.
func (c *Client) Upload(ctx context.Context, path string, form io.Reader, contentType string, out interface{}) error {
	req := transport.Request{
		Method:      http.MethodPost,
		Path:        path,
		RawBody:     form,
		ContentType: contentType,
	}
	return c.call(ctx, req, out)
}

// Raw executes req and returns the undecoded 2xx body, still running the
// shared error handler on failure. Callers needing response bytes (file
// downloads, URL-form mutations) use this instead of the verb helpers.
func (c *Client) Raw(ctx context.Context, req transport.Request) ([]byte, error) {
	raw, err := c.transport.Do(ctx, req)
	if err != nil {
		c.handleError(ctx, err)
		return nil, err
	}
	return raw, nil
}

func (c *Client) call(ctx context.Context, req transport.Request, out interface{}) error {
	raw, err := c.transport.Do(ctx, req)
	if err != nil {
		c.handleError(ctx, err)
		return err
	}
	if out == nil {
		return nil
	}
	if err := Decode(raw, out); err != nil {
		c.logger.Warn("response decode failed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Error(err))
		return err
	}
	return nil
}

// handleError applies the shared UI side effect. Business errors pass
// through untouched so the caller can special-case a known condition; a 401
// tears down the session even if the transport already did.
func (c *Client) handleError(ctx context.Context, err error) {
	if _, ok := apierr.AsBusiness(err); ok {
		return
	}
	if apierr.IsUnauthorized(err) {
		if clearErr := c.session.Clear(ctx); clearErr != nil {
			c.logger.Warn("session clear failed", zap.Error(clearErr))
		}
		c.notifier.Error("session expired")
	}
}
