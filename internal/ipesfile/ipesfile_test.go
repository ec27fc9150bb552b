package ipesfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "e (0)\r\n<ElementLK>\r\ntyp 1\r\n<\\ElementLK>\r\nFileVersion 201\r\n"

func TestSaveLoad_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ipes")
	require.NoError(t, Save(path, sample, -1))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, gzipMagic, raw[:2])

	text, framing, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Gzip, framing)
	assert.Equal(t, sample, text)
}

func TestLoad_ZlibFallback(t *testing.T) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	text, framing, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, Zlib, framing)
	assert.Equal(t, sample, text)
}

func TestLoad_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ipes")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	lines, err := LoadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"e (0)", "<ElementLK>", "typ 1", `<\ElementLK>`, "FileVersion 201"}, lines)
}

func TestEncode_BadLevel(t *testing.T) {
	_, err := Encode(sample, 42)
	assert.Error(t, err)
}

func TestSave_BadLevelKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ipes")
	require.NoError(t, Save(path, sample, -1))
	require.Error(t, Save(path, "replaced", 42))

	text, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sample, text)
}

func TestReadLines(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("a 1\r\n\r\nb 2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a 1", "", "b 2"}, lines)
}
