package document

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jorge-barreto/ipes/internal/codec"
	"github.com/jorge-barreto/ipes/internal/fileblocks"
)

// Category is the kind of a top-level component block.
type Category int

const (
	PowerConnection Category = iota
	ControlConnection
	ThermalConnection
	PowerElement
	ThermalElement
	ControlElement
	SpecialElement
)

var categoryTags = [...]struct{ short, open string }{
	PowerConnection:   {"verbindungLK", "Verbindung"},
	ControlConnection: {"verbindungCONTROL", "Verbindung"},
	ThermalConnection: {"verbindungTHERM", "Verbindung"},
	PowerElement:      {"e", "ElementLK"},
	ThermalElement:    {"eTH", "ElementTHERM"},
	ControlElement:    {"c", "ElementCONTROL"},
	SpecialElement:    {"sp", "ElementSPECIAL"},
}

// Categories returns every category in file order.
func Categories() []Category {
	return []Category{
		PowerConnection, ControlConnection, ThermalConnection,
		PowerElement, ThermalElement, ControlElement, SpecialElement,
	}
}

// Short returns the header word of the category, e.g. "eTH".
func (c Category) Short() string { return categoryTags[c].short }

// OpenTag returns the block tag of the category, e.g. "ElementTHERM".
func (c Category) OpenTag() string { return categoryTags[c].open }

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryTags) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return c.Short()
}

// ParseCategory maps a header word back to its category.
func ParseCategory(short string) (Category, bool) {
	for _, c := range Categories() {
		if c.Short() == short {
			return c, true
		}
	}
	return 0, false
}

// Component is one circuit element or connection. Concrete components
// live outside this package and are plugged in through a Registry.
type Component interface {
	Category() Category
	TypeCode() int
	ID() int64
	Name() string
	// AttachmentRefs returns the attachment hashes the component uses.
	AttachmentRefs() []int64
	// Shift adds delta to the component identifier and to every
	// identifier it holds of another component.
	Shift(delta int64)
	// Export writes the lines between the category markers.
	Export(w *codec.Writer)
}

// Factory builds a component from its block.
type Factory func(c Category, typ int, b *fileblocks.Block) (Component, error)

type registryKey struct {
	c   Category
	typ int
}

// Registry maps category and type code to a factory.
type Registry struct {
	factories map[registryKey]Factory
	// Fallback builds components with no registered factory. A nil
	// Fallback makes such blocks an ErrUnknownComponent.
	Fallback Factory
}

// NewRegistry returns a registry that keeps unregistered components as
// RawComponent.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[registryKey]Factory),
		Fallback:  NewRawComponent,
	}
}

// Register installs f for blocks of category c with type code typ.
func (r *Registry) Register(c Category, typ int, f Factory) {
	if r.factories == nil {
		r.factories = make(map[registryKey]Factory)
	}
	r.factories[registryKey{c, typ}] = f
}

// Lookup returns the factory for a block. A control block whose type code
// is registered only as a special element is built by the special factory,
// as older files stored text fields among control elements.
func (r *Registry) Lookup(c Category, typ int) (Factory, Category, bool) {
	if f, ok := r.factories[registryKey{c, typ}]; ok {
		return f, c, true
	}
	if c == ControlElement {
		if f, ok := r.factories[registryKey{SpecialElement, typ}]; ok {
			return f, SpecialElement, true
		}
	}
	if r.Fallback != nil {
		return r.Fallback, c, true
	}
	return nil, c, false
}

const (
	keyType   = "typ"
	keyID     = "uniqueObjectIdentifier"
	keyParent = "parentSheetIdentifier"
	keyName   = "idStringDialog"
	tagExtra  = "extraSourceFiles"
)

// refKeys are the scalar keys through which elements reference
// attachments.
var refKeys = []string{"lossFileHashValue", "nonLinearCharHashValue", "externalDataFileHashValue"}

type ref struct {
	key  string
	hash int64
}

// RawComponent keeps a component this build has no model for. The
// identity lines are parsed; every other line is written back unchanged.
type RawComponent struct {
	category   Category
	typ        int
	id         int64
	parent     int64
	hasParent  bool
	name       string
	refs       []ref
	extraFiles []int64
	rest       []string
}

// NewRaw returns an empty component of category c.
func NewRaw(c Category, typ int, id int64, name string) *RawComponent {
	return &RawComponent{category: c, typ: typ, id: id, name: name}
}

// NewRawComponent is the Factory for RawComponent.
func NewRawComponent(c Category, typ int, b *fileblocks.Block) (Component, error) {
	r := &RawComponent{category: c, typ: typ}
	var err error
	if r.id, err = fileblocks.Get[int64](b, keyID, 0); err != nil {
		return nil, err
	}
	if b.ContainsKey(keyParent) {
		r.hasParent = true
		if r.parent, err = fileblocks.Get[int64](b, keyParent, 0); err != nil {
			return nil, err
		}
	}
	if r.name, err = fileblocks.Get(b, keyName, ""); err != nil {
		return nil, err
	}
	for _, k := range refKeys {
		if !b.ContainsKey(k) {
			continue
		}
		h, err := fileblocks.Get[int64](b, k, 0)
		if err != nil {
			return nil, err
		}
		if h != 0 && h != -1 {
			r.refs = append(r.refs, ref{k, h})
		}
	}
	if extra, ok := b.Block(tagExtra); ok {
		for _, line := range extra.Lines() {
			for _, f := range strings.Fields(line) {
				h, err := strconv.ParseInt(f, 10, 64)
				if err != nil {
					return nil, &fileblocks.FormatError{Line: extra.Line(), Key: tagExtra, Value: f, Want: "attachment hash"}
				}
				r.extraFiles = append(r.extraFiles, h)
			}
		}
	}
	r.rest = unparsedLines(b.RawLines())
	return r, nil
}

// unparsedLines drops the top-level lines RawComponent models itself.
func unparsedLines(lines []string) []string {
	known := map[string]bool{keyType: true, keyID: true, keyParent: true, keyName: true}
	for _, k := range refKeys {
		known[k] = true
	}
	var out []string
	depth := 0
	inExtra := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "<"+tagExtra+">" && depth == 0:
			inExtra = true
			continue
		case trimmed == `<\`+tagExtra+">" && inExtra:
			inExtra = false
			continue
		case inExtra:
			continue
		case strings.HasPrefix(trimmed, `<\`):
			depth--
		case strings.HasPrefix(trimmed, "<") && strings.HasSuffix(trimmed, ">"):
			depth++
		case depth == 0:
			if key, _, _ := strings.Cut(trimmed, " "); known[key] {
				continue
			}
		}
		out = append(out, line)
	}
	return out
}

func (r *RawComponent) Category() Category { return r.category }
func (r *RawComponent) TypeCode() int      { return r.typ }
func (r *RawComponent) ID() int64          { return r.id }
func (r *RawComponent) Name() string       { return r.name }

// Parent returns the identifier of the enclosing subcircuit sheet.
func (r *RawComponent) Parent() (int64, bool) { return r.parent, r.hasParent }

// SetParent places the component on the sheet with identifier id.
func (r *RawComponent) SetParent(id int64) {
	r.parent, r.hasParent = id, true
}

// Lines returns the lines kept verbatim.
func (r *RawComponent) Lines() []string { return slices.Clone(r.rest) }

// AppendLines adds verbatim lines written after the modelled ones.
func (r *RawComponent) AppendLines(lines ...string) {
	r.rest = append(r.rest, lines...)
}

func (r *RawComponent) AttachmentRefs() []int64 {
	out := make([]int64, 0, len(r.refs)+len(r.extraFiles))
	for _, x := range r.refs {
		out = append(out, x.hash)
	}
	return append(out, r.extraFiles...)
}

// SetRef records hash under one of the attachment reference keys.
func (r *RawComponent) SetRef(key string, hash int64) error {
	if !slices.Contains(refKeys, key) {
		return fmt.Errorf("%s is not an attachment reference key", key)
	}
	for i := range r.refs {
		if r.refs[i].key == key {
			r.refs[i].hash = hash
			return nil
		}
	}
	r.refs = append(r.refs, ref{key, hash})
	return nil
}

// AddExtraFile references an additional source file attachment.
func (r *RawComponent) AddExtraFile(hash int64) {
	if !slices.Contains(r.extraFiles, hash) {
		r.extraFiles = append(r.extraFiles, hash)
	}
}

func (r *RawComponent) Shift(delta int64) {
	r.id += delta
	if r.hasParent && r.parent != 0 && r.parent != -1 {
		r.parent += delta
	}
}

func (r *RawComponent) Export(w *codec.Writer) {
	w.Int(keyType, r.typ)
	w.Int64(keyID, r.id)
	if r.hasParent {
		w.Int64(keyParent, r.parent)
	}
	w.Str(keyName, r.name)
	for _, x := range r.refs {
		w.Int64(x.key, x.hash)
	}
	if len(r.extraFiles) > 0 {
		w.Open(tagExtra)
		for _, h := range r.extraFiles {
			w.Raw(strconv.FormatInt(h, 10))
		}
		w.Close(tagExtra)
	}
	for _, line := range r.rest {
		w.Raw(line)
	}
}
