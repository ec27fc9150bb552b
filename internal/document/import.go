package document

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jorge-barreto/ipes/internal/attachment"
	"github.com/jorge-barreto/ipes/internal/codec"
	"github.com/jorge-barreto/ipes/internal/fileblocks"
)

// Options control Import.
type Options struct {
	// DocumentPath is where the file was read from. Relative attachment
	// paths are resolved against it; empty uses the stored path.
	DocumentPath string
	// Registry builds components; nil uses NewRegistry.
	Registry *Registry
	// Strict turns every tolerated format problem into an error.
	Strict bool
	// BackupProbe stops after the document id.
	BackupProbe bool
	// Release and OldestSupported bound the accepted FileVersion; zero
	// means CurrentRelease and OldestSupported.
	Release         int
	OldestSupported int
	// Logger receives warnings as they happen; nil discards them.
	Logger *log.Logger
}

type stage int

const (
	stageStart stage = iota
	stageDocumentID
	stageGlobalSettings
	stageComponents
	stageAttachments
	stageDone
)

func (s stage) String() string {
	switch s {
	case stageStart:
		return "parse"
	case stageDocumentID:
		return "document id"
	case stageGlobalSettings:
		return "global settings"
	case stageComponents:
		return "components"
	case stageAttachments:
		return "attachments"
	}
	return "done"
}

type importer struct {
	lines  []string
	opts   Options
	root   *fileblocks.Block
	doc    *Document
	report *Report
	stage  stage
	err    error
}

// ScriptTags are the blocks whose bodies are kept verbatim.
var ScriptTags = []string{tagScriptCode, tagScriptImports, tagScriptDeclarations}

// Import reads a document from the lines of an .ipes file. Recoverable
// problems are returned in the Report; the error is non-nil only when no
// usable document could be built.
func Import(lines []string, opts Options) (*Document, *Report, error) {
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Release == 0 {
		opts.Release = CurrentRelease
	}
	if opts.OldestSupported == 0 {
		opts.OldestSupported = OldestSupported
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	im := &importer{lines: lines, opts: opts, doc: New(), report: &Report{}}

	steps := []func(){im.parse, im.readDocumentID, im.readGlobalSettings, im.readComponents, im.readAttachments}
	for i, step := range steps {
		im.stage = stage(i)
		step()
		if im.err != nil {
			return nil, im.report, fmt.Errorf("%s: %w", im.stage, im.err)
		}
		if im.stage == stageDocumentID && opts.BackupProbe {
			break
		}
	}
	im.stage = stageDone
	return im.doc, im.report, nil
}

// ProbeID reads only the document id of a file. Files without one fail
// with ErrNoDocumentID.
func ProbeID(lines []string) (int32, error) {
	d, _, err := Import(lines, Options{BackupProbe: true, Strict: true})
	if err != nil {
		return 0, err
	}
	return d.ID, nil
}

// tolerate records err as a warning, or as the import error in strict
// mode. It reports whether the import may continue.
func (im *importer) tolerate(err error) bool {
	if err == nil {
		return true
	}
	if im.opts.Strict {
		if im.err == nil {
			im.err = err
		}
		return false
	}
	im.warn(err)
	return true
}

func (im *importer) warn(err error) {
	im.report.Warnings = append(im.report.Warnings, err)
	im.opts.Logger.Warn(err.Error(), "stage", im.stage.String())
}

// read stores the value of key in dst when it is present and readable.
func read[T codec.Value](im *importer, b *fileblocks.Block, key string, dst *T) {
	if im.err != nil || !b.ContainsKey(key) {
		return
	}
	v, err := fileblocks.Get(b, key, *dst)
	if err != nil {
		im.tolerate(err)
		return
	}
	*dst = v
}

func (im *importer) parse() {
	im.root, im.err = fileblocks.Parse(im.lines, fileblocks.WithOpaque(ScriptTags...))
}

// readDocumentID keeps the random id of New when the file has none. A
// backup probe has no use for a made-up id and fails instead.
func (im *importer) readDocumentID() {
	if im.opts.BackupProbe && !im.root.ContainsKey("UniqueFileId") {
		im.err = ErrNoDocumentID
		return
	}
	read(im, im.root, "UniqueFileId", &im.doc.ID)
}

func (im *importer) readGlobalSettings() {
	d, root := im.doc, im.root
	d.FileVersion = -1

	if root.ContainsKey("tDURATION") {
		read(im, root, "tDURATION", &d.Solver.Duration)
		read(im, root, "dt", &d.Solver.Step)
		read(im, root, "path", &d.Path)
		read(im, root, "fontSize", &d.View.FontSize)
		read(im, root, "fontTyp", &d.View.FontName)
		read(im, root, "fensterWidth", &d.View.WindowWidth)
		read(im, root, "fensterHeight", &d.View.WindowHeight)
	}
	if im.opts.DocumentPath != "" {
		d.Path = im.opts.DocumentPath
	}
	im.readWorksheet()

	d.Solver.PreStep = 0
	read(im, root, "dt_pre", &d.Solver.PreStep)
	if root.ContainsKey("solverType") {
		var code int
		read(im, root, "solverType", &code)
		if t := SolverType(code); t.valid() {
			d.Solver.Type = t
		} else {
			v, _ := root.Value("solverType")
			im.tolerate(&fileblocks.FormatError{Key: "solverType", Value: v, Want: "solver type 0, 1 or 2"})
		}
	}
	read(im, root, "T_pre", &d.Solver.PreDuration)
	read(im, root, "tPAUSE", &d.Solver.Pause)
	d.View.Dpix = 10
	read(im, root, "dpix", &d.View.Dpix)

	if root.ContainsKey("DtStor") {
		var stamp string
		read(im, root, "DtStor", &stamp)
		if t, err := time.Parse(dateLayout, strings.TrimSpace(stamp)); err == nil {
			d.Stored = t
		} else {
			im.tolerate(&fileblocks.FormatError{Key: "DtStor", Value: stamp, Want: "date"})
		}
	}

	if root.ContainsKey("ANSICHT_SHOW_LK_NAME") {
		im.readFlags("LK", &d.View.Power, true)
		im.readFlags("THERM", &d.View.Thermal, true)
		im.readFlags("CONTROL", &d.View.Control, false)
	}

	if root.ContainsKey("optimizerName") {
		im.readParameters()
	}
	if _, ok := root.Block(tagScriptCode); ok {
		im.readScript()
	}

	if root.ContainsKey("FileVersion") {
		read(im, root, "FileVersion", &d.FileVersion)
		switch {
		case d.FileVersion < im.opts.OldestSupported:
			im.warn(&VersionWarning{Kind: LegacyVersion, Found: d.FileVersion, Oldest: im.opts.OldestSupported, Release: im.opts.Release})
		case d.FileVersion > im.opts.Release:
			im.warn(&VersionWarning{Kind: NewerVersion, Found: d.FileVersion, Oldest: im.opts.OldestSupported, Release: im.opts.Release})
		}
	}

	if signals, err := root.Strings("dataContainerSignals"); im.tolerate(err) {
		d.Signals = signals
	}

	if d.Solver.PreStep <= 0 {
		d.Solver.PreStep = d.Solver.Step
	}
}

// legacyWorksheet maps the pixel widths older releases stored to sheet
// sizes.
var legacyWorksheet = map[int]int{600: 30, 1000: 60, 1500: 120, 2000: 200, 5000: 350, 9000: 900}

func (im *importer) readWorksheet() {
	d, root := im.doc, im.root
	v, ok := root.Value("worksheetSize")
	if !ok {
		read(im, root, "worksheetSizeX", &d.View.WorksheetX)
		read(im, root, "worksheetSizeY", &d.View.WorksheetY)
		return
	}
	w, h, found := strings.Cut(strings.TrimSpace(v), "x")
	wi, errW := strconv.Atoi(w)
	hi, errH := strconv.Atoi(h)
	if !found || errW != nil || errH != nil {
		im.tolerate(&fileblocks.FormatError{Key: "worksheetSize", Value: v, Want: "WIDTHxHEIGHT"})
		return
	}
	d.View.WorksheetX = legacySheetSize(wi)
	d.View.WorksheetY = legacySheetSize(hi)
}

func legacySheetSize(px int) int {
	if s, ok := legacyWorksheet[px]; ok {
		return s
	}
	return 30
}

func (im *importer) readFlags(domain string, f *DisplayFlags, flowDir bool) {
	prefix := "ANSICHT_SHOW_" + domain + "_"
	read(im, im.root, prefix+"NAME", &f.Name)
	read(im, im.root, prefix+"PARAMETER", &f.Parameter)
	if flowDir {
		read(im, im.root, prefix+"FLOWDIR", &f.FlowDir)
	}
	read(im, im.root, prefix+"TEXTLINIE", &f.TextLine)
}

// readParameters pairs names with values. A value that cannot be read
// drops its pair with a warning instead of shifting the rest.
func (im *importer) readParameters() {
	names, err := im.root.Strings("optimizerName")
	if !im.tolerate(err) {
		return
	}
	raw, _ := im.root.Value("optimizerValue" + codec.ArraySuffix)
	parts, _ := codec.SplitValues(raw)
	var params []Parameter
	for i, name := range names {
		if i >= len(parts) || name == "" {
			continue
		}
		v, err := codec.ParseFloat(parts[i])
		if err != nil || math.IsNaN(v) {
			if !im.tolerate(&fileblocks.FormatError{Key: "optimizerValue[]", Value: parts[i], Want: "number for " + name}) {
				return
			}
			continue
		}
		params = append(params, Parameter{Name: name, Value: v})
	}
	im.doc.Parameters = params
}

func (im *importer) readScript() {
	s := &im.doc.Script
	s.Code, _ = im.root.SubBlockText(tagScriptCode)
	s.Imports, _ = im.root.SubBlockText(tagScriptImports)
	s.Declarations, _ = im.root.SubBlockText(tagScriptDeclarations)
	s.Declarations = strings.TrimRight(s.Declarations, " ")
	extra, ok := im.root.Block(tagScriptExtra)
	if !ok {
		return
	}
	for _, line := range extra.Lines() {
		for _, f := range strings.Fields(line) {
			h, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				if !im.tolerate(&fileblocks.FormatError{Line: extra.Line(), Key: tagScriptExtra, Value: f, Want: "attachment hash"}) {
					return
				}
				continue
			}
			s.ExtraFiles = append(s.ExtraFiles, h)
		}
	}
}

func (im *importer) readComponents() {
	cur := im.root.Cursor()
	for _, cat := range Categories() {
		for b := cur.NextEntity(cat.Short(), cat.OpenTag()); b != nil; b = cur.NextEntity(cat.Short(), cat.OpenTag()) {
			if !im.readComponent(cat, b) {
				return
			}
		}
	}
}

func (im *importer) readComponent(cat Category, b *fileblocks.Block) bool {
	typ, err := fileblocks.Get(b, keyType, -1)
	if err != nil {
		return im.tolerate(err)
	}
	factory, built, ok := im.opts.Registry.Lookup(cat, typ)
	if !ok {
		return im.tolerate(fmt.Errorf("line %d: %s type %d: %w", b.Line(), cat, typ, ErrUnknownComponent))
	}
	c, err := factory(built, typ, b)
	if err != nil {
		return im.tolerate(fmt.Errorf("%s (%d): %w", cat, b.Ordinal, err))
	}
	im.doc.Components = append(im.doc.Components, c)
	return true
}

func (im *importer) readAttachments() {
	d := im.doc
	if mgr, ok := im.root.Block(attachment.ManagerTag); ok {
		names := make(map[string]int64)
		for _, c := range d.Components {
			if _, seen := names[c.Name()]; !seen && c.Name() != "" {
				names[c.Name()] = c.ID()
			}
		}
		store, errs := attachment.ReadStore(mgr, attachment.ReadOptions{
			DocumentPath: d.Path,
			Resolve: func(name string) (int64, bool) {
				id, ok := names[name]
				return id, ok
			},
			Warn: im.warn,
		})
		d.Attachments = store
		for _, err := range errs {
			im.report.AttachmentErrors = append(im.report.AttachmentErrors, err)
			im.opts.Logger.Error(err.Error(), "stage", im.stage.String())
			var nf *attachment.NotFoundError
			if errors.As(err, &nf) {
				im.report.Missing = append(im.report.Missing, nf.Hash)
			}
		}
	}

	missing := make(map[int64]bool, len(im.report.Missing))
	for _, h := range im.report.Missing {
		missing[h] = true
	}
	for _, c := range d.Components {
		for _, h := range c.AttachmentRefs() {
			if _, ok := d.Attachments.Lookup(h); !ok && !missing[h] {
				im.err = fmt.Errorf("%s %q references %d: %w", c.Category(), c.Name(), h, ErrUnresolvedAttachment)
				return
			}
		}
	}
	for _, h := range d.Script.ExtraFiles {
		if _, ok := d.Attachments.Lookup(h); !ok && !missing[h] {
			im.err = fmt.Errorf("script source file %d: %w", h, ErrUnresolvedAttachment)
			return
		}
	}
}
