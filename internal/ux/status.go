package ux

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jorge-barreto/ipes/internal/attachment"
	"github.com/jorge-barreto/ipes/internal/document"
)

// RenderInfo prints the summary shown by "ipes info".
func RenderInfo(w io.Writer, path string, d *document.Document, report *document.Report, release int) {
	fmt.Fprintf(w, "%s %s\n", bold.Sprint("Model:"), Path(path))
	KeyValue(w, "Document id", d.ID)
	KeyValue(w, "File version", versionLabel(d.FileVersion, release))
	if !d.Stored.IsZero() {
		KeyValue(w, "Saved", d.Stored.Format("2006-01-02"))
	}
	KeyValue(w, "Solver", fmt.Sprintf("%s, dt=%g, t=%g", d.Solver.Type, d.Solver.Step, d.Solver.Duration))
	if d.Solver.PreDuration > 0 {
		KeyValue(w, "Pre-simulation", fmt.Sprintf("dt=%g, t=%g", d.Solver.PreStep, d.Solver.PreDuration))
	}
	KeyValue(w, "Worksheet", fmt.Sprintf("%dx%d", d.View.WorksheetX, d.View.WorksheetY))

	Heading(w, "Components:")
	counts := make(map[document.Category]int)
	for _, c := range d.Components {
		counts[c.Category()]++
	}
	for _, cat := range document.Categories() {
		if n := counts[cat]; n > 0 {
			fmt.Fprintf(w, "  %-20s %d\n", cat.Short(), n)
		}
	}
	if len(d.Components) == 0 {
		fmt.Fprintf(w, "  %s\n", Muted("(none)"))
	}

	if len(d.Parameters) > 0 {
		Heading(w, "Parameters:")
		for _, p := range d.Parameters {
			fmt.Fprintf(w, "  %-20s %g\n", p.Name, p.Value)
		}
	}

	Heading(w, "Attachments:")
	fmt.Fprintf(w, "  %d stored (%d embedded, %d external)\n",
		d.Attachments.Len(), countStorage(d, attachment.Embedded), countStorage(d, attachment.External))

	if report != nil && !report.Clean() {
		Heading(w, "Warnings:")
		Warnings(w, report.Warnings)
		Warnings(w, report.AttachmentErrors)
	}
}

func versionLabel(found, release int) string {
	switch {
	case found < 0:
		return yellow.Sprint("unknown")
	case found > release:
		return yellow.Sprintf("%d (newer than %d)", found, release)
	case found < document.OldestSupported:
		return yellow.Sprintf("%d (legacy)", found)
	}
	return strconv.Itoa(found)
}

func countStorage(d *document.Document, t attachment.StorageType) int {
	n := 0
	for _, a := range d.Attachments.All() {
		if a.StorageType() == t {
			n++
		}
	}
	return n
}

// AttachmentTable prints one row per attachment.
func AttachmentTable(w io.Writer, d *document.Document) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Hash", "Storage", "Path", "Users", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	unused := d.Unused()
	for _, a := range d.Attachments.All() {
		t.AppendRow(table.Row{a.Hash(), a.StorageType(), a.RelPath(), userNames(d, a), attachmentStatus(a, slices.Contains(unused, a.Hash()))})
	}
	if d.Attachments.Len() == 0 {
		t.AppendFooter(table.Row{"", "", "no attachments"})
	}
	t.Render()
}

func userNames(d *document.Document, a *attachment.Attachment) string {
	names := make([]string, 0, a.UserCount())
	for _, id := range a.Users() {
		if id == document.ScriptUser {
			names = append(names, "script")
		} else if c, ok := d.Component(id); ok && c.Name() != "" {
			names = append(names, c.Name())
		} else {
			names = append(names, strconv.FormatInt(id, 10))
		}
	}
	return strings.Join(names, ", ")
}

func attachmentStatus(a *attachment.Attachment, unused bool) string {
	if unused {
		return yellow.Sprint("unused")
	}
	if a.StorageType() == attachment.External {
		if _, err := a.CheckModified(); err != nil {
			return red.Sprint("missing")
		}
	}
	return green.Sprint("ok")
}
