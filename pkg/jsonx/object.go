// Package jsonx decodes loosely-typed JSON request bodies.
package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxBytes caps request bodies read by DecodeObject.
const DefaultMaxBytes = 1 << 20

var (
	ErrEmptyBody    = errors.New("empty body")
	ErrTrailingJSON = errors.New("trailing data")
	ErrNotObject    = errors.New("body must be a JSON object")
	ErrTooLarge     = errors.New("body too large")
)

// DecodeObject reads one JSON object from src and returns its members undecoded,
// so each member can be coerced by its own rules.
//
// Intended HTTP mapping: every error is a 400 Bad Request.
//   - empty body                   => ErrEmptyBody
//   - more than maxBytes           => ErrTooLarge
//   - malformed JSON               => *json.SyntaxError, io.ErrUnexpectedEOF
//   - array, scalar or null value  => ErrNotObject
//   - anything after the object    => ErrTrailingJSON
//
// maxBytes <= 0 selects DefaultMaxBytes.
func DecodeObject(src io.Reader, maxBytes int64) (map[string]json.RawMessage, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, ErrTooLarge
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrEmptyBody
	}
	if trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var obj map[string]json.RawMessage
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	// Ensure no trailing JSON values
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingJSON
	}
	return obj, nil
}
