// Package packer encodes values stored as blobs by litepool's journal.
package packer

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode serialises v with msgpack.
func Encode(v any) ([]byte, error) {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cannot encode %T: %w", v, err)
	}
	return raw, nil
}

// Decode deserialises raw into v, which must be a pointer.
func Decode(raw []byte, v any) error {
	if err := msgpack.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("cannot decode into %T: %w", v, err)
	}
	return nil
}
