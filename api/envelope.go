package api

import (
	"encoding/json"
	"fmt"
)

// Decode unmarshals a response body into out, unwrapping the `{data: T}`
// envelope when present. Paginated `{content: [...]}` bodies and bare
// payloads decode as-is, so callers receive a usable value regardless of
// which shape the backend chose for an endpoint.
func Decode(raw []byte, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	// A literal `"data": null` is not the envelope; the body decodes as-is
	// so sibling fields survive.
	if err := json.Unmarshal(raw, &envelope); err == nil &&
		len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("api: decode envelope data: %w", err)
		}
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("api: decode payload: %w", err)
	}
	return nil
}

// Page is the backend's paginated list envelope. List endpoints return it
// unchanged; Content defaults to an empty slice on decode.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
}

// UnmarshalJSON keeps Content non-nil even when the backend omits it.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	type alias Page[T]
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.Content == nil {
		decoded.Content = []T{}
	}
	*p = Page[T](decoded)
	return nil
}
