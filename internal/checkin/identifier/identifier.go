// Package identifier turns raw NFC tag identifiers into canonical registry keys.
//
// A canonical key is uppercase hexadecimal without separators.  Byte-like
// input is encoded two hex digits per element in the order given, so callers
// must supply tag bytes in a consistent order (the reader's UID order).
//
// Normalize never fails.  When nothing usable can be extracted it returns a
// synthetic key ("TEMP" + hex millis + hex random) flagged as such.  The "T",
// "M" and "P" characters are not hex digits, so a synthetic key can never
// equal a key derived from a real reading.
package identifier

import (
	"crypto/rand"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// SyntheticPrefix marks keys that were generated rather than read from a tag.
const SyntheticPrefix = "TEMP"

// Identifier is the result of normalization.
type Identifier struct {
	Key       string
	Synthetic bool
}

func (id Identifier) String() string { return id.Key }

// Normalize canonicalizes raw.  Accepted shapes, in order of precedence:
//
//   - strings made only of hex digits and ':' / '-' separators
//   - previously issued synthetic keys, returned unchanged
//   - byte-like sequences whose elements are all integers in 0..255
//     ([]byte, []int, []any holding JSON numbers, ...)
//   - scalar numbers, rendered in plain decimal (JSON decodes 87654321 as
//     a float64, which fmt would print as 8.7654321e+07)
//   - anything else, rendered as text with every non-hex character removed
//
// If the result is empty a synthetic identifier is returned.
func Normalize(raw any) Identifier {
	switch v := raw.(type) {
	case nil:
		return synthesize(time.Now())
	case string:
		return fromText(v)
	case float64:
		return fromNumber(v)
	case float32:
		return fromNumber(float64(v))
	case []byte:
		return fromKey(encodeBytes(v))
	case []int:
		return fromInts(raw, len(v), func(i int) (int64, bool) { return int64(v[i]), true })
	case []int64:
		return fromInts(raw, len(v), func(i int) (int64, bool) { return v[i], true })
	case []uint16:
		return fromInts(raw, len(v), func(i int) (int64, bool) { return int64(v[i]), true })
	case []float64:
		return fromInts(raw, len(v), func(i int) (int64, bool) { return integral(v[i]) })
	case []any:
		return fromInts(raw, len(v), func(i int) (int64, bool) { return anyInt(v[i]) })
	case fmt.Stringer:
		return fromText(v.String())
	default:
		return fromKey(stripNonHex(fmt.Sprint(raw)))
	}
}

// IsSynthetic reports whether key was produced by the fallback path.
func IsSynthetic(key string) bool {
	return strings.HasPrefix(key, SyntheticPrefix)
}

// IsCanonical reports whether key is already in the form Normalize produces.
func IsCanonical(key string) bool {
	if IsSynthetic(key) {
		rest := key[len(SyntheticPrefix):]
		return rest != "" && isUpperHex(rest)
	}
	return key != "" && isUpperHex(key)
}

func fromText(s string) Identifier {
	s = strings.TrimSpace(s)
	if IsSynthetic(s) && IsCanonical(s) {
		// A synthetic key echoed back by a client refers to an existing record.
		return Identifier{Key: s, Synthetic: true}
	}
	if isSeparatedHex(s) {
		return fromKey(strings.ToUpper(strings.NewReplacer(":", "", "-", "").Replace(s)))
	}
	return fromKey(stripNonHex(s))
}

func fromNumber(f float64) Identifier {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return synthesize(time.Now())
	}
	return fromKey(stripNonHex(strconv.FormatFloat(f, 'f', -1, 64)))
}

func fromInts(raw any, n int, at func(int) (int64, bool)) Identifier {
	var b strings.Builder
	b.Grow(n * 2)
	for i := 0; i < n; i++ {
		x, ok := at(i)
		if !ok || x < 0 || x > 0xFF {
			return fromKey(stripNonHex(fmt.Sprint(raw)))
		}
		b.WriteString(hexByte(byte(x)))
	}
	return fromKey(b.String())
}

func fromKey(key string) Identifier {
	if key == "" {
		return synthesize(time.Now())
	}
	return Identifier{Key: key}
}

func synthesize(now time.Time) Identifier {
	var r [3]byte
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(r[:])
	key := SyntheticPrefix +
		strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 16)) +
		encodeBytes(r[:])
	return Identifier{Key: key, Synthetic: true}
}

func encodeBytes(p []byte) string {
	var b strings.Builder
	b.Grow(len(p) * 2)
	for _, c := range p {
		b.WriteString(hexByte(c))
	}
	return b.String()
}

const hexDigits = "0123456789ABCDEF"

func hexByte(c byte) string {
	return string([]byte{hexDigits[c>>4], hexDigits[c&0x0F]})
}

func integral(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func anyInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return integral(n)
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case interface{ Int64() (int64, error) }: // json.Number
		x, err := n.Int64()
		return x, err == nil
	default:
		return 0, false
	}
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isUpperHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9') && !('A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

func isSeparatedHex(s string) bool {
	digits := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case isHex(c):
			digits++
		case c == ':' || c == '-':
		default:
			return false
		}
	}
	return digits > 0
}

func stripNonHex(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; isHex(c) {
			b.WriteByte(c)
		}
	}
	return strings.ToUpper(b.String())
}
