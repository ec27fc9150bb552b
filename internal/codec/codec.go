// Package codec holds the primitive value rules of the .ipes token format:
// how numbers, booleans, strings and arrays are rendered on a line and read
// back.
package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// Empty stands in for an empty string so a value never vanishes from
	// its line.
	Empty = "NIX_NIX_NIX"
	// StringSeparator prefixes every element of a string array.
	StringSeparator = "/"
	// ArraySuffix marks a one-dimensional array key.
	ArraySuffix = "[]"
	// Array2DSuffix marks a two-dimensional array key.
	Array2DSuffix = "[][]"
	// Null is written in place of the values of a nil array.
	Null = "null"
)

// Value is the set of scalar types the format knows how to render.
type Value interface {
	int | int32 | int64 | float64 | bool | string
}

// FormatFloat renders v the way the desktop application does, so files stay
// diffable across both writers: plain decimals between 1e-3 and 1e7,
// otherwise mantissa E exponent, always with a fractional digit.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}

	abs := math.Abs(v)
	if abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	s := strconv.FormatFloat(v, 'E', -1, 64)
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	n, _ := strconv.Atoi(exp)
	return mant + "E" + strconv.Itoa(n)
}

// Format renders a scalar. Empty strings become the Empty sentinel.
func Format[T Value](v T) string {
	switch x := any(v).(type) {
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return FormatFloat(x)
	case bool:
		return strconv.FormatBool(x)
	case string:
		if x == "" {
			return Empty
		}
		return x
	}
	return fmt.Sprint(v)
}

// Parse reads a single scalar token. Strings map the Empty sentinel back to "".
func Parse[T Value](s string) (T, error) {
	var zero T
	var out any
	var err error
	switch any(zero).(type) {
	case int:
		var n int64
		n, err = strconv.ParseInt(s, 10, 0)
		out = int(n)
	case int32:
		var n int64
		n, err = strconv.ParseInt(s, 10, 32)
		out = int32(n)
	case int64:
		out, err = strconv.ParseInt(s, 10, 64)
	case float64:
		out, err = ParseFloat(s)
	case bool:
		out, err = ParseBool(s)
	case string:
		if s == Empty {
			s = ""
		}
		out = s
	default:
		return zero, fmt.Errorf("unsupported value type %T", zero)
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

// ParseFloat accepts Go and JVM spellings, including a trailing d or f
// type suffix.
func ParseFloat(s string) (float64, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	if n := len(s); n > 1 && strings.ContainsRune("dDfF", rune(s[n-1])) {
		if v, err := strconv.ParseFloat(s[:n-1], 64); err == nil {
			return v, nil
		}
	}
	return 0, fmt.Errorf("invalid number %q", s)
}

// ParseBool accepts true and false in any case.
func ParseBool(s string) (bool, error) {
	switch {
	case strings.EqualFold(s, "true"):
		return true, nil
	case strings.EqualFold(s, "false"):
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// ParseByte accepts both signed (-128..127) and unsigned (0..255) spellings.
func ParseByte(s string) (byte, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < -128 || n > 255 {
		return 0, fmt.Errorf("invalid byte %q", s)
	}
	return byte(n), nil
}

// FormatByte renders b as a signed value.
func FormatByte(b byte) string {
	return strconv.Itoa(int(int8(b)))
}

// SplitValues splits the payload of a numeric array. Legacy writers used
// slashes between values, so both separators are accepted. A nil result
// with ok false means the array was written as null.
func SplitValues(payload string) (values []string, ok bool) {
	payload = strings.TrimSpace(payload)
	if payload == Null {
		return nil, false
	}
	return strings.FieldsFunc(payload, func(r rune) bool {
		return r == '/' || r == ' ' || r == '\t'
	}), true
}

// SplitStrings splits the payload of a string array into its elements.
// Every element is written with a leading separator, so the empty piece in
// front of the first one is discarded.
func SplitStrings(payload string) (values []string, ok bool) {
	payload = strings.TrimRight(payload, " \t")
	if payload == Null {
		return nil, false
	}
	if payload == "" {
		return []string{}, true
	}
	parts := strings.Split(payload, StringSeparator)
	if strings.HasPrefix(payload, StringSeparator) {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p == Empty {
			parts[i] = ""
		}
	}
	return parts, true
}

// EscapeText folds s onto one physical line.
func EscapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// UnescapeText reverses EscapeText. Unknown escapes are kept as written.
func UnescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(c)
			continue
		}
		i++
	}
	return b.String()
}
