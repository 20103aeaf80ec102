package cache

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	V    int             `json:"v"`
	Data json.RawMessage `json:"data"`
}

// Codec serializes payloads inside a versioned JSON envelope so schema drift
// is detected instead of half-decoded.
type Codec[T any] struct {
	Version int
}

func (c Codec[T]) Encode(v T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return json.Marshal(envelope{V: c.Version, Data: data})
}

// Decode returns an error wrapping ErrParse on malformed input or a version mismatch.
func (c Codec[T]) Decode(b []byte) (T, error) {
	var out T
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return out, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if env.V != c.Version {
		return out, fmt.Errorf("%w: schema version %d, want %d", ErrParse, env.V, c.Version)
	}
	if len(env.Data) == 0 {
		return out, fmt.Errorf("%w: empty data", ErrParse)
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return out, nil
}
