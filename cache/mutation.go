package cache

import (
	"context"

	"go.uber.org/zap"

	"voltswap/api"
	"voltswap/apierr"
	"voltswap/transport"
)

// MutationFunc executes one write operation.
type MutationFunc func(ctx context.Context) (interface{}, error)

// MutationOptions declare what a successful write invalidates.
type MutationOptions struct {
	InvalidateKeys []Key
	OnSuccess      func(data interface{})
}

// Mutate runs fn exactly once; writes are never retried so non-idempotent
// operations cannot be duplicated. On success the declared keys are marked
// stale before OnSuccess runs. On failure the original error is returned
// untouched and cached data stays as it was.
func (s *Store) Mutate(ctx context.Context, fn MutationFunc, opts *MutationOptions) (interface{}, error) {
	data, err := fn(ctx)
	if err != nil {
		s.handleMutationError(ctx, err)
		return nil, err
	}

	if opts != nil {
		s.Invalidate(opts.InvalidateKeys...)
		if opts.OnSuccess != nil {
			opts.OnSuccess(data)
		}
	}
	return data, nil
}

// MutateURL is the URL form of Mutate: the store issues the request itself
// with the given method and payload.
func (s *Store) MutateURL(ctx context.Context, path, method string, payload interface{}, opts *MutationOptions) (interface{}, error) {
	return s.Mutate(ctx, func(ctx context.Context) (interface{}, error) {
		var out interface{}
		raw, err := s.doRaw(ctx, path, method, payload)
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			return nil, nil
		}
		if err := api.Decode(raw, &out); err != nil {
			return nil, err
		}
		return unwrapData(out), nil
	}, opts)
}

func (s *Store) doRaw(ctx context.Context, path, method string, payload interface{}) ([]byte, error) {
	return s.api.Raw(ctx, transport.Request{Method: method, Path: path, Body: payload})
}

func (s *Store) handleMutationError(ctx context.Context, err error) {
	if _, ok := apierr.AsBusiness(err); ok {
		return
	}
	if apierr.IsUnauthorized(err) {
		if clearErr := s.session.Clear(ctx); clearErr != nil {
			s.logger.Warn("session clear failed", zap.Error(clearErr))
		}
		s.notifier.Error("session expired")
		return
	}
	s.notifier.Error(apierr.MessageOf(err))
}
