package persistence

import "fmt"

// KeyAutoLogin is the durable key for the auto-login preference. External
// callers read it directly, so the value format is part of the wire
// contract: a string-coerced boolean.
const KeyAutoLogin = "autoLogin"

// EncodeBool serializes a boolean preference as the strings "true"/"false".
func EncodeBool(v bool) []byte {
	if v {
		return []byte("true")
	}
	return []byte("false")
}

// DecodeBool parses a string-coerced boolean preference.
func DecodeBool(data []byte) (bool, error) {
	switch string(data) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean preference value %q", string(data))
	}
}
