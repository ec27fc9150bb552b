package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{1, "1.0"},
		{0.02, "0.02"},
		{0.001, "0.001"},
		{1e-6, "1.0E-6"},
		{2.5e-5, "2.5E-5"},
		{1e7, "1.0E7"},
		{123456.75, "123456.75"},
		{-3, "-3.0"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatFloat(tc.in), "FormatFloat(%v)", tc.in)
	}
}

func TestParseFloat_RoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1e-6, 0.02, 1e7, -42.125, 6.02214076e23} {
		got, err := ParseFloat(FormatFloat(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestParseFloat_JVMSpellings(t *testing.T) {
	v, err := ParseFloat("Infinity")
	require.NoError(t, err)
	assert.True(t, math.IsInf(v, 1))

	v, err = ParseFloat("NaN")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))

	v, err = ParseFloat("2.5d")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	_, err = ParseFloat("bad")
	assert.Error(t, err)
}

func TestParse_Types(t *testing.T) {
	n, err := Parse[int]("42")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	id, err := Parse[int64]("-9007199254740993")
	require.NoError(t, err)
	assert.Equal(t, int64(-9007199254740993), id)

	_, err = Parse[int32]("9999999999")
	assert.Error(t, err)

	b, err := Parse[bool]("TRUE")
	require.NoError(t, err)
	assert.True(t, b)

	_, err = Parse[bool]("yes")
	assert.Error(t, err)

	s, err := Parse[string](Empty)
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestFormat_EmptyString(t *testing.T) {
	assert.Equal(t, Empty, Format(""))
	assert.Equal(t, "abc def", Format("abc def"))
}

func TestParseByte(t *testing.T) {
	for in, want := range map[string]byte{"-1": 0xff, "127": 0x7f, "-128": 0x80, "200": 200} {
		got, err := ParseByte(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseByte("256")
	assert.Error(t, err)
	assert.Equal(t, "-1", FormatByte(0xff))
}

func TestSplitStrings_EmptyElements(t *testing.T) {
	w := NewWriter()
	w.Strings("names", []string{"", "abc", ""})
	assert.Equal(t, "names[] /NIX_NIX_NIX/abc/NIX_NIX_NIX\n", w.String())

	got, ok := SplitStrings("/NIX_NIX_NIX/abc/NIX_NIX_NIX")
	require.True(t, ok)
	assert.Equal(t, []string{"", "abc", ""}, got)
}

func TestSplitStrings_NullAndEmpty(t *testing.T) {
	got, ok := SplitStrings("null")
	assert.False(t, ok)
	assert.Nil(t, got)

	got, ok = SplitStrings("")
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestSplitValues_AcceptsSlashes(t *testing.T) {
	got, ok := SplitValues("/1.5/99.0/2.5")
	require.True(t, ok)
	assert.Equal(t, []string{"1.5", "99.0", "2.5"}, got)

	got, ok = SplitValues("1 2 3 ")
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2", "3"}, got)
}

func TestEscapeText_RoundTrip(t *testing.T) {
	src := "double x = 7.0;\nprintln(\"a\\nb\");\r\n"
	esc := EscapeText(src)
	assert.NotContains(t, esc, "\n")
	assert.Equal(t, src, UnescapeText(esc))
}

func TestWriter_Arrays(t *testing.T) {
	w := NewWriter()
	w.Ints("a", []int{1, 2})
	w.Floats("b", nil)
	w.Bytes("c", []byte{0, 0xff})
	w.Floats2D("d", [][]float64{{1, 2}, {3, 4}})
	w.Header("e", 3)
	w.Open("ElementLK")
	w.Close("ElementLK")
	want := "a[] 1 2 \n" +
		"b[] null\n" +
		"c[] 0 -1 \n" +
		"d[][] 2 2 1.0 2.0 3.0 4.0\n" +
		"e (3)\n" +
		"<ElementLK>\n" +
		"<\\ElementLK>\n"
	assert.Equal(t, want, w.String())
}
