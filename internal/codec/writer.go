package codec

import (
	"strconv"
	"strings"
)

// Writer accumulates token lines. Every method appends exactly one
// physical line terminated by a newline.
type Writer struct {
	b strings.Builder
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// String returns everything written so far.
func (w *Writer) String() string {
	return w.b.String()
}

// Len reports the number of bytes written.
func (w *Writer) Len() int {
	return w.b.Len()
}

// Raw appends line verbatim.
func (w *Writer) Raw(line string) {
	w.b.WriteString(line)
	w.b.WriteByte('\n')
}

// Blank appends an empty line.
func (w *Writer) Blank() {
	w.b.WriteByte('\n')
}

// Open appends a block opening marker.
func (w *Writer) Open(tag string) {
	w.Raw("<" + tag + ">")
}

// Close appends a block closing marker.
func (w *Writer) Close(tag string) {
	w.Raw(`<\` + tag + ">")
}

// Header appends a repeated-entity header such as "e (3)".
func (w *Writer) Header(short string, ordinal int) {
	w.Raw(short + " (" + strconv.Itoa(ordinal) + ")")
}

func scalar[T Value](w *Writer, key string, v T) {
	w.b.WriteString(key)
	w.b.WriteByte(' ')
	w.b.WriteString(Format(v))
	w.b.WriteByte('\n')
}

func (w *Writer) Int(key string, v int)       { scalar(w, key, v) }
func (w *Writer) Int32(key string, v int32)   { scalar(w, key, v) }
func (w *Writer) Int64(key string, v int64)   { scalar(w, key, v) }
func (w *Writer) Float(key string, v float64) { scalar(w, key, v) }
func (w *Writer) Bool(key string, v bool)     { scalar(w, key, v) }

// Str appends a string scalar; an empty value is written as Empty.
func (w *Writer) Str(key string, v string) { scalar(w, key, v) }

// Text appends an opaque text value on one line with newlines escaped.
func (w *Writer) Text(key, v string) {
	w.b.WriteString(key)
	w.b.WriteByte(' ')
	w.b.WriteString(EscapeText(v))
	w.b.WriteByte('\n')
}

func array[T Value](w *Writer, key string, vs []T) {
	w.b.WriteString(key)
	w.b.WriteString(ArraySuffix + " ")
	if vs == nil {
		w.b.WriteString(Null)
	}
	for _, v := range vs {
		w.b.WriteString(Format(v))
		w.b.WriteByte(' ')
	}
	w.b.WriteByte('\n')
}

func (w *Writer) Ints(key string, vs []int)       { array(w, key, vs) }
func (w *Writer) Int64s(key string, vs []int64)   { array(w, key, vs) }
func (w *Writer) Floats(key string, vs []float64) { array(w, key, vs) }
func (w *Writer) Bools(key string, vs []bool)     { array(w, key, vs) }

// Bytes appends a byte array as signed decimal values.
func (w *Writer) Bytes(key string, data []byte) {
	w.b.WriteString(key)
	w.b.WriteString(ArraySuffix + " ")
	if data == nil {
		w.b.WriteString(Null)
	}
	for _, c := range data {
		w.b.WriteString(FormatByte(c))
		w.b.WriteByte(' ')
	}
	w.b.WriteByte('\n')
}

// Strings appends a string array, each element behind a separator.
func (w *Writer) Strings(key string, vs []string) {
	w.b.WriteString(key)
	w.b.WriteString(ArraySuffix + " ")
	if vs == nil {
		w.b.WriteString(Null)
	}
	for _, v := range vs {
		w.b.WriteString(StringSeparator)
		w.b.WriteString(Format(v))
	}
	w.b.WriteByte('\n')
}

func array2D[T Value](w *Writer, key string, rows [][]T) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	w.b.WriteString(key)
	w.b.WriteString(Array2DSuffix + " ")
	w.b.WriteString(strconv.Itoa(len(rows)))
	w.b.WriteByte(' ')
	w.b.WriteString(strconv.Itoa(cols))
	for _, row := range rows {
		for j := 0; j < cols; j++ {
			var v T
			if j < len(row) {
				v = row[j]
			}
			w.b.WriteByte(' ')
			w.b.WriteString(Format(v))
		}
	}
	w.b.WriteByte('\n')
}

func (w *Writer) Ints2D(key string, rows [][]int)       { array2D(w, key, rows) }
func (w *Writer) Floats2D(key string, rows [][]float64) { array2D(w, key, rows) }
func (w *Writer) Bools2D(key string, rows [][]bool)     { array2D(w, key, rows) }
