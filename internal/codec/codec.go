// Package codec serializes job parameters for the BLOB columns. The format
// is JSON; decoding uses json.Number so integers and floats survive the
// round trip distinctly.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode renders params as JSON. A nil value encodes to "null".
func Encode(params any) ([]byte, error) {
	b, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	return b, nil
}

// Decode parses raw parameter bytes. Empty input decodes to nil; numbers
// come back as json.Number.
func Decode(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return v, nil
}
