package types

import (
	"encoding/json"
	"fmt"
)

// ByteSequence is a serialized-transaction byte string as it travels over
// the wallet wire contract. The wallet endpoints and the confirmation
// window exchange it as a plain JSON array of byte values rather than the
// base64 string Go would normally emit for []byte.
type ByteSequence []byte

// MarshalJSON encodes the bytes as a JSON array of numbers.
func (b ByteSequence) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	out := make([]uint16, len(b))
	for i, v := range b {
		out[i] = uint16(v)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts either a JSON array of byte values or a base64
// string, since some callers re-encode the payload through encoding/json
// defaults before it reaches us.
func (b *ByteSequence) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var values []int
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("failed to decode byte array: %w", err)
		}
		out := make([]byte, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return fmt.Errorf("byte value %d at index %d out of range", v, i)
			}
			out[i] = byte(v)
		}
		*b = out
		return nil
	}

	var fallback []byte
	if err := json.Unmarshal(data, &fallback); err != nil {
		return fmt.Errorf("failed to decode byte sequence: %w", err)
	}
	*b = fallback
	return nil
}
