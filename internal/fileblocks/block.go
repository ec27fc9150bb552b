package fileblocks

import (
	"strings"

	"github.com/jorge-barreto/ipes/internal/codec"
)

// lastWins lists legacy keys that some writers emitted twice; the final
// occurrence is the one that counts.
var lastWins = map[string]bool{
	"orientierung": true,
}

type node struct {
	line  *Token
	block *Block
}

// Block is one tag-delimited region of a token stream. A Block is never
// modified after Parse returns.
type Block struct {
	Tag     string
	Header  string // short tag of the header line, "" if none
	Ordinal int    // header ordinal, -1 if none

	parent *Block
	nodes  []node
	opaque []string
	keys   map[string]*Token

	src        []string
	start, end int // indexes of the open and close marker lines
}

func (b *Block) index() {
	b.keys = make(map[string]*Token)
	for _, n := range b.nodes {
		t := n.line
		if t == nil || (t.Kind != Scalar && t.Kind != Header) {
			continue
		}
		if _, seen := b.keys[t.Key]; seen && !lastWins[t.Key] {
			continue
		}
		b.keys[t.Key] = t
	}
}

// Line returns the 1-based source line of the opening marker, or 0 for the
// root block.
func (b *Block) Line() int {
	return b.start + 1
}

// Parent returns the enclosing block, nil for the root.
func (b *Block) Parent() *Block {
	return b.parent
}

// ContainsKey reports whether a direct line of b assigns key, in scalar or
// array form.
func (b *Block) ContainsKey(key string) bool {
	return b.lookup(key) != nil || b.lookup(key+codec.ArraySuffix) != nil || b.lookup(key+codec.Array2DSuffix) != nil
}

func (b *Block) lookup(key string) *Token {
	if b.keys == nil {
		return nil
	}
	return b.keys[key]
}

// Value returns the raw text after key, and whether the key is present.
func (b *Block) Value(key string) (string, bool) {
	t := b.lookup(key)
	if t == nil {
		return "", false
	}
	return t.Value, true
}

// Keys returns the keys of the direct scalar lines in source order.
func (b *Block) Keys() []string {
	var keys []string
	seen := make(map[string]bool)
	for _, n := range b.nodes {
		if t := n.line; t != nil && (t.Kind == Scalar || t.Kind == Header) && !seen[t.Key] {
			seen[t.Key] = true
			keys = append(keys, t.Key)
		}
	}
	return keys
}

// Text returns an escaped single-line text value with its newlines
// restored.
func (b *Block) Text(key string) (string, bool) {
	v, ok := b.Value(key)
	if !ok {
		return "", false
	}
	if v == codec.Empty {
		return "", true
	}
	return codec.UnescapeText(v), true
}

// Data returns the direct payload lines of b, trimmed.
func (b *Block) Data() []string {
	var out []string
	for _, n := range b.nodes {
		if n.line != nil && n.line.Kind == Data {
			out = append(out, strings.TrimSpace(n.line.Text))
		}
	}
	return out
}

// Lines returns every direct line of b that is not a block marker,
// trimmed.
func (b *Block) Lines() []string {
	var out []string
	for _, n := range b.nodes {
		if n.line != nil {
			out = append(out, strings.TrimSpace(n.line.Text))
		}
	}
	return out
}

// Children returns the direct sub-blocks of b in source order.
func (b *Block) Children() []*Block {
	var out []*Block
	for _, n := range b.nodes {
		if n.block != nil {
			out = append(out, n.block)
		}
	}
	return out
}

// Blocks returns the direct sub-blocks opened with tag.
func (b *Block) Blocks(tag string) []*Block {
	var out []*Block
	for _, n := range b.nodes {
		if n.block != nil && n.block.Tag == tag {
			out = append(out, n.block)
		}
	}
	return out
}

// Entities returns the direct sub-blocks opened with tag under a header
// line naming short.
func (b *Block) Entities(short, tag string) []*Block {
	var out []*Block
	for _, c := range b.Blocks(tag) {
		if c.Header == short {
			out = append(out, c)
		}
	}
	return out
}

// Block returns the first direct sub-block opened with tag.
func (b *Block) Block(tag string) (*Block, bool) {
	for _, n := range b.nodes {
		if n.block != nil && n.block.Tag == tag {
			return n.block, true
		}
	}
	return nil, false
}

// RawLines returns the source lines between the markers of b.
func (b *Block) RawLines() []string {
	lo, hi := b.start+1, b.end
	if lo < 0 {
		lo = 0
	}
	if hi > len(b.src) {
		hi = len(b.src)
	}
	if lo >= hi {
		return nil
	}
	out := make([]string, hi-lo)
	copy(out, b.src[lo:hi])
	return out
}

// SubBlockText returns the verbatim payload of the opaque sub-block tag.
// A payload written on one physical line has its escapes decoded; older
// multi-line payloads are joined unchanged.
func (b *Block) SubBlockText(tag string) (string, bool) {
	sub, ok := b.Block(tag)
	if !ok {
		return "", false
	}
	switch len(sub.opaque) {
	case 0:
		return "", true
	case 1:
		return codec.UnescapeText(sub.opaque[0]), true
	}
	return strings.Join(sub.opaque, "\n"), true
}

// Cursor walks the sub-blocks of a Block. Each tag, or header and tag
// pair, advances independently, so categories may be interleaved in the
// stream.
type Cursor struct {
	b   *Block
	pos map[string]int
}

// Cursor returns a cursor positioned before the first sub-block of b.
func (b *Block) Cursor() *Cursor {
	return &Cursor{b: b, pos: make(map[string]int)}
}

// NextBlock returns the next not yet returned sub-block opened with tag, or
// nil when there is none.
func (c *Cursor) NextBlock(tag string) *Block {
	return c.next(tag, func(b *Block) bool { return b.Tag == tag })
}

// NextEntity is NextBlock restricted to blocks headed by short.
func (c *Cursor) NextEntity(short, tag string) *Block {
	return c.next(short+" "+tag, func(b *Block) bool {
		return b.Tag == tag && b.Header == short
	})
}

func (c *Cursor) next(key string, match func(*Block) bool) *Block {
	for i := c.pos[key]; i < len(c.b.nodes); i++ {
		if blk := c.b.nodes[i].block; blk != nil && match(blk) {
			c.pos[key] = i + 1
			return blk
		}
	}
	c.pos[key] = len(c.b.nodes)
	return nil
}
