package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Page is the backend's pagination envelope: {"count", "next", "previous", "results"}.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether the backend advertised a further page.
func (p *Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

// UnmarshalJSON accepts both the paginated envelope and a bare JSON array,
// which is treated as a single unpaginated page.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*p = Page[T]{Count: len(items), Results: items}
		return nil
	}

	var env struct {
		Count    int     `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
		Results  []T     `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return err
	}
	*p = Page[T]{Count: env.Count, Next: env.Next, Previous: env.Previous, Results: env.Results}
	if p.Results == nil {
		p.Results = []T{}
	}
	return nil
}

// DecodeInto unmarshals the response body into out. Empty bodies (204) leave
// out untouched.
func DecodeInto(resp *Response, out any) error {
	if resp == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return NewParseError(fmt.Sprintf("failed to parse response (HTTP %d)", resp.StatusCode), err)
	}
	return nil
}

// Decode unmarshals the response body into a new T.
func Decode[T any](resp *Response) (T, error) {
	var out T
	err := DecodeInto(resp, &out)
	return out, err
}

// DecodePage unmarshals a paginated (or bare array) response.
func DecodePage[T any](resp *Response) (*Page[T], error) {
	page := &Page[T]{Results: []T{}}
	if err := DecodeInto(resp, page); err != nil {
		return nil, err
	}
	return page, nil
}
