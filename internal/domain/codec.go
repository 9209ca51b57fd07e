package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode serializes the cart as a JSON array of flat lines.
func Encode(c Cart) ([]byte, error) {
	if c == nil {
		c = Cart{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	return data, nil
}

// Decode parses a stored cart blob. An empty blob is an empty cart; a blob
// that parses but breaks the cart invariants is an error.
func Decode(data []byte) (Cart, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Cart{}, nil
	}

	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if c == nil {
		c = Cart{}
	}
	return c, nil
}
