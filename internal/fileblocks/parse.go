package fileblocks

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Kind classifies one physical line of a token stream.
type Kind int

const (
	Scalar Kind = iota // key followed by a value
	Data               // payload line, never a key
	Open               // <Tag>
	Close              // <\Tag>
	Header             // short tag with ordinal, e.g. "e (3)"
	Opaque             // body of a block listed in WithOpaque
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Data:
		return "data"
	case Open:
		return "open"
	case Close:
		return "close"
	case Header:
		return "header"
	case Opaque:
		return "opaque"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Token is one non-blank line.
type Token struct {
	Kind    Kind
	Num     int    // 1-based source line
	Key     string // Scalar: text before the first space; Header: short tag
	Value   string // Scalar: text after the first space
	Tag     string // Open/Close: tag name
	Ordinal int    // Header: number in parentheses
	Text    string // the line without its trailing newline
	Lines   []string
}

var headerRe = regexp.MustCompile(`^(\S+)\s+\((-?\d+)\)$`)

type options struct {
	opaque map[string]bool
}

// Option configures Lex and Parse.
type Option func(*options)

// WithOpaque marks tags whose body is kept verbatim instead of tokenized.
func WithOpaque(tags ...string) Option {
	return func(o *options) {
		if o.opaque == nil {
			o.opaque = make(map[string]bool)
		}
		for _, t := range tags {
			o.opaque[t] = true
		}
	}
}

// SplitLines splits text on newlines and drops carriage returns.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func markerTag(trimmed string) (Kind, string, bool) {
	if len(trimmed) < 3 || trimmed[0] != '<' || trimmed[len(trimmed)-1] != '>' {
		return 0, "", false
	}
	inner := trimmed[1 : len(trimmed)-1]
	kind := Open
	if strings.HasPrefix(inner, `\`) {
		kind = Close
		inner = inner[1:]
	}
	if inner == "" || strings.ContainsAny(inner, " \t<>") {
		return 0, "", false
	}
	return kind, inner, true
}

func isData(line string) bool {
	if line == "" {
		return false
	}
	c := rune(line[0])
	if unicode.IsDigit(c) || unicode.IsSpace(c) {
		return true
	}
	return c == '-' && len(line) > 1 && unicode.IsDigit(rune(line[1]))
}

// Lex classifies every non-blank line. The body of an opaque block is
// collected into a single Opaque token, and its close marker is emitted as
// usual.
func Lex(lines []string, opts ...Option) []Token {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var toks []Token
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		num := i + 1

		if kind, tag, ok := markerTag(trimmed); ok {
			toks = append(toks, Token{Kind: kind, Num: num, Tag: tag, Text: line})
			if kind == Open && o.opaque[tag] {
				closer := `<\` + tag + ">"
				body := Token{Kind: Opaque, Num: num + 1, Tag: tag}
				j := i + 1
				for ; j < len(lines); j++ {
					if strings.TrimSpace(lines[j]) == closer {
						break
					}
					body.Lines = append(body.Lines, lines[j])
				}
				toks = append(toks, body)
				i = j - 1
			}
			continue
		}

		if isData(line) {
			toks = append(toks, Token{Kind: Data, Num: num, Text: line})
			continue
		}

		key, value, _ := strings.Cut(line, " ")
		tok := Token{Kind: Scalar, Num: num, Key: key, Value: strings.TrimRight(value, " \t"), Text: line}
		if m := headerRe.FindStringSubmatch(trimmed); m != nil {
			tok.Kind = Header
			tok.Key = m[1]
			tok.Ordinal, _ = strconv.Atoi(m[2])
		}
		toks = append(toks, tok)
	}
	return toks
}

// Parse brackets the token stream of lines into a tree rooted at an
// untagged block. A header line directly followed by an opening marker
// becomes the header of that block. Close markers that match no open block
// are ignored; an open block left unclosed is a *FormatError.
func Parse(lines []string, opts ...Option) (*Block, error) {
	toks := Lex(lines, opts...)
	root := &Block{Ordinal: -1, src: lines, start: -1, end: len(lines)}
	stack := []*Block{root}

	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		top := stack[len(stack)-1]

		switch tok.Kind {
		case Open:
			b := &Block{Tag: tok.Tag, Ordinal: -1, src: lines, start: tok.Num - 1, parent: top}
			if n := len(top.nodes); n > 0 {
				if prev := top.nodes[n-1].line; prev != nil && isHeaderFor(prev, toks, i) {
					b.Header = prev.Key
					if prev.Kind == Header {
						b.Ordinal = prev.Ordinal
					}
					top.nodes = top.nodes[:n-1]
				}
			}
			top.nodes = append(top.nodes, node{block: b})
			stack = append(stack, b)

		case Close:
			depth := -1
			for d := len(stack) - 1; d > 0; d-- {
				if stack[d].Tag == tok.Tag {
					depth = d
					break
				}
			}
			if depth < 0 {
				continue
			}
			if depth != len(stack)-1 {
				return nil, &FormatError{Line: top.Line(), Key: top.Tag, Want: "closing marker"}
			}
			top.end = tok.Num - 1
			top.index()
			stack = stack[:depth]

		case Opaque:
			top.opaque = append(top.opaque, tok.Lines...)

		default:
			t := tok
			top.nodes = append(top.nodes, node{line: &t})
		}
	}

	if len(stack) > 1 {
		b := stack[len(stack)-1]
		return nil, &FormatError{Line: b.Line(), Key: b.Tag, Want: "closing marker"}
	}
	root.index()
	return root, nil
}

// isHeaderFor reports whether prev, the last line seen, names the block
// opened by toks[i]: either an "e (3)" style header or a bare word.
func isHeaderFor(prev *Token, toks []Token, i int) bool {
	if i == 0 || toks[i-1].Num != prev.Num {
		return false
	}
	switch prev.Kind {
	case Header:
		return true
	case Scalar:
		return prev.Value == "" && !strings.ContainsAny(prev.Text, " \t") && !strings.HasSuffix(prev.Key, "]")
	}
	return false
}
