package document

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	"github.com/jorge-barreto/ipes/internal/codec"
)

const (
	tagScriptCode         = "scripterCode"
	tagScriptImports      = "scripterImports"
	tagScriptDeclarations = "scripterDeclarations"
	tagScriptExtra        = "extraScriptSourceFiles"
	dateLayout            = "2006-01-02"
	trailer               = "======================="
)

// ExportOptions control how a document is rendered.
type ExportOptions struct {
	// Collapse writes external attachments embedded, for a single
	// self-contained file. The document itself is unchanged.
	Collapse bool
	// Release is written as FileVersion; 0 means CurrentRelease.
	Release int
	// Now stamps DtStor; nil means time.Now.
	Now func() time.Time
}

// Export renders d in the .ipes token format. Components are written grouped
// by category in file order; within a category the document order is kept.
func Export(d *Document, opts ExportOptions) (string, error) {
	if opts.Release == 0 {
		opts.Release = CurrentRelease
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	w := codec.NewWriter()

	comps := slices.Clone(d.Components)
	slices.SortStableFunc(comps, func(a, b Component) int {
		return cmp.Compare(a.Category(), b.Category())
	})
	for i, c := range comps {
		cat := c.Category()
		w.Blank()
		w.Header(cat.Short(), i)
		w.Open(cat.OpenTag())
		c.Export(w)
		w.Close(cat.OpenTag())
	}

	names := make([]string, len(d.Parameters))
	values := make([]float64, len(d.Parameters))
	for i, p := range d.Parameters {
		names[i], values[i] = p.Name, p.Value
	}
	w.Strings("optimizerName", names)
	w.Floats("optimizerValue", values)

	writeScript(w, d.Script)

	if err := d.Attachments.Export(w, opts.Collapse); err != nil {
		return "", err
	}

	w.Blank()
	w.Raw("DtStor " + opts.Now().Format(dateLayout))
	s := d.Solver
	w.Float("tDURATION", s.Duration)
	w.Float("dt", s.Step)
	w.Float("tPAUSE", s.Pause)
	w.Float("T_pre", s.PreDuration)
	w.Float("dt_pre", s.PreStep)
	w.Int("solverType", int(s.Type))
	w.Str("path", d.Path)

	v := d.View
	w.Int("dpix", v.Dpix)
	w.Int("fontSize", v.FontSize)
	w.Str("fontTyp", v.FontName)
	w.Int("fensterWidth", v.WindowWidth)
	w.Int("fensterHeight", v.WindowHeight)
	w.Int("worksheetSizeX", v.WorksheetX)
	w.Int("worksheetSizeY", v.WorksheetY)
	writeFlags(w, "LK", v.Power, true)
	writeFlags(w, "THERM", v.Thermal, true)
	writeFlags(w, "CONTROL", v.Control, false)

	w.Int("FileVersion", opts.Release)
	w.Int32("UniqueFileId", d.ID)
	w.Strings("dataContainerSignals", d.Signals)
	w.Raw(trailer)
	return w.String(), nil
}

func writeScript(w *codec.Writer, s Script) {
	for _, part := range []struct{ tag, text string }{
		{tagScriptCode, s.Code},
		{tagScriptImports, s.Imports},
		{tagScriptDeclarations, s.Declarations},
	} {
		w.Open(part.tag)
		w.Raw(codec.EscapeText(part.text))
		w.Close(part.tag)
	}
	w.Open(tagScriptExtra)
	for _, h := range s.ExtraFiles {
		w.Raw(strconv.FormatInt(h, 10))
	}
	w.Close(tagScriptExtra)
}

func writeFlags(w *codec.Writer, domain string, f DisplayFlags, flowDir bool) {
	prefix := "ANSICHT_SHOW_" + domain + "_"
	w.Bool(prefix+"NAME", f.Name)
	w.Bool(prefix+"PARAMETER", f.Parameter)
	if flowDir {
		w.Bool(prefix+"FLOWDIR", f.FlowDir)
	}
	w.Bool(prefix+"TEXTLINIE", f.TextLine)
}
