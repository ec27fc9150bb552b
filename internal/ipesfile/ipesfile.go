// Package ipesfile handles the outer framing of model files: gzip on
// write, and gzip, zlib or plain text on read.
package ipesfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/jorge-barreto/ipes/internal/fileblocks"
)

// Framing names how a file was stored.
type Framing int

const (
	Gzip Framing = iota
	Zlib
	Plain
)

func (f Framing) String() string {
	switch f {
	case Gzip:
		return "gzip"
	case Zlib:
		return "zlib"
	}
	return "plain"
}

var gzipMagic = []byte{0x1f, 0x8b}

// encode writes text to w gzip-compressed at level; -1 is the default
// level.
func encode(w io.Writer, text string, level int) error {
	zw, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return fmt.Errorf("compression level %d: %w", level, err)
	}
	if _, err := io.WriteString(zw, text); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Encode compresses text with gzip at level.
func Encode(text string, level int) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, text, level); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode returns the text held in data and the framing it was found in.
// Data that is neither gzip nor zlib is taken as plain text.
func Decode(data []byte) (string, Framing, error) {
	if bytes.HasPrefix(data, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return "", Gzip, err
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return "", Gzip, fmt.Errorf("gzip: %w", err)
		}
		return string(out), Gzip, nil
	}
	if zr, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
		out, err := io.ReadAll(zr)
		zr.Close()
		if err == nil {
			return string(out), Zlib, nil
		}
	}
	return string(data), Plain, nil
}

// Save writes text to path gzip-compressed and atomically.
func Save(path, text string, level int) error {
	err := WriteAtomic(path, 0644, func(w io.Writer) error {
		return encode(w, text, level)
	})
	if err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// Load reads the text of the model file at path.
func Load(path string) (string, Framing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", Plain, err
	}
	text, framing, err := Decode(data)
	if err != nil {
		return "", framing, fmt.Errorf("reading %s: %w", path, err)
	}
	return text, framing, nil
}

// LoadLines is Load split into lines.
func LoadLines(path string) ([]string, error) {
	text, _, err := Load(path)
	if err != nil {
		return nil, err
	}
	return fileblocks.SplitLines(text), nil
}

// ReadLines reads all of r and splits it into lines without carriage
// returns.
func ReadLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return fileblocks.SplitLines(string(data)), nil
}
