package fileblocks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jorge-barreto/ipes/internal/codec"
)

// FormatError reports a value that is present but cannot be read as the
// requested type, or a block that is not closed.
type FormatError struct {
	Line  int
	Key   string
	Value string
	Want  string
}

func (e *FormatError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("line %d: %s: missing %s", e.Line, e.Key, e.Want)
	}
	return fmt.Sprintf("line %d: %s: cannot read %q as %s", e.Line, e.Key, e.Value, e.Want)
}

func typeName[T codec.Value]() string {
	var zero T
	switch any(zero).(type) {
	case int, int32:
		return "integer"
	case int64:
		return "long integer"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return "string"
}

func formatErr(t *Token, value, want string) *FormatError {
	return &FormatError{Line: t.Num, Key: t.Key, Value: value, Want: want}
}

// Get reads the scalar key from b. An absent key yields def and no error.
// Strings receive the whole rest of the line.
func Get[T codec.Value](b *Block, key string, def T) (T, error) {
	t := b.lookup(key)
	if t == nil {
		return def, nil
	}
	raw := t.Value
	if _, isString := any(def).(string); !isString {
		raw = strings.TrimSpace(raw)
	}
	v, err := codec.Parse[T](raw)
	if err != nil {
		return def, formatErr(t, raw, typeName[T]())
	}
	return v, nil
}

// Array reads key[] from b. An absent key and an array written as null both
// yield nil.
func Array[T codec.Value](b *Block, key string) ([]T, error) {
	t := b.lookup(key + codec.ArraySuffix)
	if t == nil {
		return nil, nil
	}
	var zero T
	if _, isString := any(zero).(string); isString {
		parts, ok := codec.SplitStrings(t.Value)
		if !ok {
			return nil, nil
		}
		return any(parts).([]T), nil
	}
	parts, ok := codec.SplitValues(t.Value)
	if !ok {
		return nil, nil
	}
	out := make([]T, 0, len(parts))
	for _, p := range parts {
		v, err := codec.Parse[T](p)
		if err != nil {
			return nil, formatErr(t, p, typeName[T]()+" array element")
		}
		out = append(out, v)
	}
	return out, nil
}

// Strings is Array for string arrays.
func (b *Block) Strings(key string) ([]string, error) {
	return Array[string](b, key)
}

// Bytes reads the byte array key[] from b.
func (b *Block) Bytes(key string) ([]byte, error) {
	t := b.lookup(key + codec.ArraySuffix)
	if t == nil {
		return nil, nil
	}
	parts, ok := codec.SplitValues(t.Value)
	if !ok {
		return nil, nil
	}
	out := make([]byte, 0, len(parts))
	for _, p := range parts {
		c, err := codec.ParseByte(p)
		if err != nil {
			return nil, formatErr(t, p, "byte")
		}
		out = append(out, c)
	}
	return out, nil
}

// maxEmptyRows bounds the row count of a matrix with no columns, which has
// no values to check the count against.
const maxEmptyRows = 1 << 16

// Array2D reads key[][] from b: row and column counts followed by the
// values in row-major order.
func Array2D[T codec.Value](b *Block, key string) ([][]T, error) {
	t := b.lookup(key + codec.Array2DSuffix)
	if t == nil {
		return nil, nil
	}
	fields := strings.Fields(t.Value)
	if len(fields) < 2 {
		return nil, formatErr(t, t.Value, "row and column counts")
	}
	rows, err1 := strconv.Atoi(fields[0])
	cols, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || rows < 0 || cols < 0 {
		return nil, formatErr(t, fields[0]+" "+fields[1], "row and column counts")
	}
	values := fields[2:]
	if len(values) == 1 && values[0] == codec.Null {
		return nil, nil
	}
	switch {
	case cols == 0 && (len(values) != 0 || rows > maxEmptyRows),
		cols != 0 && (rows > len(values)/cols || len(values) != rows*cols):
		return nil, formatErr(t, t.Value, fmt.Sprintf("%dx%d values", rows, cols))
	}
	out := make([][]T, rows)
	for i := range out {
		out[i] = make([]T, cols)
		for j := range out[i] {
			v, err := codec.Parse[T](values[i*cols+j])
			if err != nil {
				return nil, formatErr(t, values[i*cols+j], typeName[T]()+" matrix element")
			}
			out[i][j] = v
		}
	}
	return out, nil
}
