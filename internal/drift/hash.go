package drift

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf16"
)

const (
	fnvOffsetBasis32 uint32 = 2166136261
	fnvPrime32       uint32 = 16777619
)

// canonicalJSON encodes the normalized form of v the way a browser
// JSON.stringify does: no HTML escaping and raw U+2028/U+2029.
func canonicalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Normalize(v)); err != nil {
		return "", err
	}
	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return string(unescapeLineSeparators(out)), nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes that
// encoding/json always emits back into raw characters. Escape sequences are
// consumed in pairs so an escaped backslash followed by "u2028" is kept.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}

	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] == 'u' && i+5 < len(b) && string(b[i+2:i+5]) == "202" {
			switch b[i+5] {
			case '8':
				out = append(out, "\u2028"...)
				i += 5
				continue
			case '9':
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}

// fnv1a32 runs FNV-1a over the UTF-16 code units of s.
func fnv1a32(s string) uint32 {
	h := fnvOffsetBasis32
	for _, unit := range utf16.Encode([]rune(s)) {
		h ^= uint32(unit)
		h *= fnvPrime32
	}
	return h
}

// Hash returns the 8 hex character drift hash of v. Structurally equal
// values hash identically regardless of map iteration order.
func Hash(v any) (string, error) {
	encoded, err := canonicalJSON(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize value for hashing: %w", err)
	}
	return fmt.Sprintf("%08x", fnv1a32(encoded)), nil
}

// MustHash is Hash for values known to be serializable. It panics otherwise.
func MustHash(v any) string {
	h, err := Hash(v)
	if err != nil {
		panic(err)
	}
	return h
}
