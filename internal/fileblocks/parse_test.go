package fileblocks

import (
	"errors"
	"strings"
	"testing"
)

func mustParse(t *testing.T, text string, opts ...Option) *Block {
	t.Helper()
	root, err := Parse(SplitLines(text), opts...)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return root
}

func TestLex_Kinds(t *testing.T) {
	lines := SplitLines("dt 1.0E-6\n\ne (3)\n<ElementLK>\n12345\n  indented\n-7\n<\\ElementLK>\n")
	toks := Lex(lines)
	want := []Kind{Scalar, Header, Open, Data, Data, Data, Close}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(toks))
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Fatalf("token %d: expected %s, got %s", i, k, toks[i].Kind)
		}
	}
	if toks[1].Key != "e" || toks[1].Ordinal != 3 {
		t.Fatalf("unexpected header token: %+v", toks[1])
	}
	if toks[0].Num != 1 || toks[1].Num != 3 {
		t.Fatalf("line numbers not preserved: %d %d", toks[0].Num, toks[1].Num)
	}
}

func TestParse_SingleBlock(t *testing.T) {
	root := mustParse(t, "e (0)\n<ElementLK>\ntyp 3\nx 12\n<\\ElementLK>\n")
	blocks := root.Blocks("ElementLK")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.Header != "e" || b.Ordinal != 0 {
		t.Fatalf("expected header e (0), got %q (%d)", b.Header, b.Ordinal)
	}
	typ, err := Get(b, "typ", -1)
	if err != nil || typ != 3 {
		t.Fatalf("typ: got %d, %v", typ, err)
	}
	if root.ContainsKey("e") {
		t.Fatal("header line must not remain a scalar of the parent")
	}
}

func TestParse_SameTagSiblingsInOrder(t *testing.T) {
	root := mustParse(t, `verbindungLK  (0)
<Verbindung>
uniqueObjectIdentifier 1
<\Verbindung>
verbindungCONTROL  (0)
<Verbindung>
uniqueObjectIdentifier 2
<\Verbindung>
verbindungLK  (1)
<Verbindung>
uniqueObjectIdentifier 3
<\Verbindung>
`)
	c := root.Cursor()
	var ids []int64
	for b := c.NextEntity("verbindungLK", "Verbindung"); b != nil; b = c.NextEntity("verbindungLK", "Verbindung") {
		id, _ := Get(b, "uniqueObjectIdentifier", int64(0))
		ids = append(ids, id)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("unexpected ids %v", ids)
	}
	ctl := c.NextEntity("verbindungCONTROL", "Verbindung")
	if ctl == nil {
		t.Fatal("control connection not found after power connections were exhausted")
	}
	if c.NextBlock("Verbindung") == nil {
		t.Fatal("NextBlock must advance independently of NextEntity")
	}
}

func TestParse_Nested(t *testing.T) {
	root := mustParse(t, `GeckoFileManager
<GeckoFileManager>
<GeckoFile>
hashValue 42
<usageList>
7
-9
<\usageList>
<\GeckoFile>
<\GeckoFileManager>
`)
	mgr, ok := root.Block("GeckoFileManager")
	if !ok {
		t.Fatal("manager block missing")
	}
	if mgr.Header != "GeckoFileManager" {
		t.Fatalf("bare header not attached: %q", mgr.Header)
	}
	files := mgr.Blocks("GeckoFile")
	if len(files) != 1 {
		t.Fatalf("expected 1 file block, got %d", len(files))
	}
	usage, _ := files[0].Block("usageList")
	if got := usage.Data(); len(got) != 2 || got[0] != "7" || got[1] != "-9" {
		t.Fatalf("unexpected usage data %q", got)
	}
	if files[0].Parent() != mgr {
		t.Fatal("parent link broken")
	}
}

func TestParse_Unclosed(t *testing.T) {
	_, err := Parse(SplitLines("<ElementLK>\ntyp 1\n"))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if fe.Line != 1 || fe.Key != "ElementLK" {
		t.Fatalf("unexpected error fields: %+v", fe)
	}
}

func TestParse_StrayCloseIgnored(t *testing.T) {
	root := mustParse(t, "dt 0.5\n<\\ElementLK>\n")
	if !root.ContainsKey("dt") {
		t.Fatal("expected dt to survive a stray close marker")
	}
}

func TestParse_ValuelessArrayIsNotAHeader(t *testing.T) {
	root := mustParse(t, "optimizerValue[] \n<scripterCode>\n<\\scripterCode>\n", WithOpaque("scripterCode"))
	if !root.ContainsKey("optimizerValue") {
		t.Fatal("array line was swallowed as a header")
	}
	b, _ := root.Block("scripterCode")
	if b.Header != "" {
		t.Fatalf("unexpected header %q", b.Header)
	}
}

func TestSubBlockText_Escaped(t *testing.T) {
	root := mustParse(t, "<scripterCode>\ndouble x = 7.0;\\nreturn x;\n<\\scripterCode>\n", WithOpaque("scripterCode"))
	got, ok := root.SubBlockText("scripterCode")
	if !ok {
		t.Fatal("scripterCode missing")
	}
	if got != "double x = 7.0;\nreturn x;" {
		t.Fatalf("got %q", got)
	}
}

func TestSubBlockText_LegacyMultiline(t *testing.T) {
	text := "<scripterCode>\nif (a) {\n\t<ElementLK>\n}\n\t<\\scripterCode>\n"
	root := mustParse(t, text, WithOpaque("scripterCode"))
	got, _ := root.SubBlockText("scripterCode")
	if got != "if (a) {\n\t<ElementLK>\n}" {
		t.Fatalf("got %q", got)
	}
	if len(root.Blocks("ElementLK")) != 0 {
		t.Fatal("opaque content was tokenized")
	}
}

func TestRawLines(t *testing.T) {
	root := mustParse(t, "c (0)\n<ElementCONTROL>\ntyp 9\nfoo bar baz\n<\\ElementCONTROL>\n")
	b, _ := root.Block("ElementCONTROL")
	got := strings.Join(b.RawLines(), "|")
	if got != "typ 9|foo bar baz" {
		t.Fatalf("got %q", got)
	}
}
