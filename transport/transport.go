// Package transport is the single point of outbound HTTP configuration:
// base URL, bearer injection from the session store, JSON defaults, and the
// status-code side effects every response goes through.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"voltswap/apierr"
	"voltswap/metrics"
	"voltswap/notify"
	"voltswap/session"
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Request describes one outbound call.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        interface{}       // JSON-marshaled unless RawBody is set
	RawBody     io.Reader         // sent as-is, ContentType must be set
	ContentType string            // overrides the JSON default
	Headers     map[string]string // extra headers
}

// Transport executes requests against the backend.
type Transport struct {
	baseURL  string
	client   HTTPDoer
	session  *session.Store
	notifier notify.Notifier
	logger   *zap.Logger
	limiter  *rate.Limiter
}

// Option customizes a Transport.
type Option func(*Transport)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(t *Transport) { t.client = client }
}

// WithRateLimit caps outbound request rate.
func WithRateLimit(rps float64, burst int) Option {
	return func(t *Transport) { t.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// New builds a transport rooted at baseURL.
func New(baseURL string, sess *session.Store, notifier notify.Notifier, logger *zap.Logger, opts ...Option) *Transport {
	t := &Transport{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   NewDefaultHTTPClient(15 * time.Second),
		session:  sess,
		notifier: notifier,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (t *Transport) buildURL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		path = t.baseURL + path
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return path
}

// Do executes the request and returns the raw 2xx body. Non-2xx responses
// run the status side effect (session teardown on 401, user notification
// otherwise) and are returned as errors.
func (t *Transport) Do(ctx context.Context, req Request) ([]byte, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.buildURL(req.Path, req.Query), body)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token := t.session.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if key := IdempotencyKeyFromContext(ctx); key != "" {
		httpReq.Header.Set("Idempotency-Key", key)
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	metrics.HTTPDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.HTTPRequests.WithLabelValues(req.Method, metrics.StatusLabel(0)).Inc()
		t.logger.Warn("request failed before response",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Error(err))
		t.notifier.Error("server unreachable")
		return nil, fmt.Errorf("%w: %v", apierr.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	metrics.HTTPRequests.WithLabelValues(req.Method, metrics.StatusLabel(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	callErr := apierr.FromResponse(resp.StatusCode, respBody)
	t.dispatchStatus(ctx, resp.StatusCode, callErr)
	return nil, callErr
}

func encodeBody(req Request) (io.Reader, string, error) {
	if req.RawBody != nil {
		return req.RawBody, req.ContentType, nil
	}
	if req.Body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("transport: encode body: %w", err)
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	return bytes.NewReader(data), contentType, nil
}

// dispatchStatus performs the per-status side effect. Business errors skip
// notification entirely so the caller can render a tailored message.
func (t *Transport) dispatchStatus(ctx context.Context, status int, callErr error) {
	if _, ok := apierr.AsBusiness(callErr); ok {
		return
	}

	switch status {
	case http.StatusUnauthorized:
		if err := t.session.Clear(ctx); err != nil {
			t.logger.Warn("session clear failed", zap.Error(err))
		}
		t.notifier.Error("session expired")
	case http.StatusForbidden:
		t.notifier.Error("forbidden")
	case http.StatusNotFound:
		t.notifier.Error("not found")
	case http.StatusInternalServerError:
		t.notifier.Error("server error")
	default:
		if msg := apierr.MessageOf(callErr); msg != "" {
			t.notifier.Error(msg)
		} else {
			t.notifier.Error("request failed")
		}
	}
}
