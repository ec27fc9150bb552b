package doctor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/jorge-barreto/ipes/internal/attachment"
	"github.com/jorge-barreto/ipes/internal/document"
	"github.com/jorge-barreto/ipes/internal/ipesfile"
)

func init() {
	color.NoColor = true
}

func saveModel(t *testing.T, path string, d *document.Document) {
	t.Helper()
	text, err := document.Export(d, document.ExportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := ipesfile.Save(path, text, -1); err != nil {
		t.Fatal(err)
	}
}

func TestCheck_CleanModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clean.ipes")
	d := document.New()
	d.Path = path
	d.Components = []document.Component{document.NewRaw(document.PowerElement, 1, 1, "R1")}
	saveModel(t, path, d)

	r := Check(path, Options{})
	if !r.OK() {
		t.Fatalf("expected clean result, got %+v", r)
	}
	if len(r.Findings) != 0 {
		t.Fatalf("Findings = %+v", r.Findings)
	}
	if r.DocumentID != d.ID {
		t.Fatalf("DocumentID = %d, want %d", r.DocumentID, d.ID)
	}
}

func TestCheck_FindsProblems(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.ipes")
	ext := filepath.Join(dir, "curve.dat")
	if err := os.WriteFile(ext, []byte("1 2"), 0644); err != nil {
		t.Fatal(err)
	}

	d := document.New()
	d.Path = path
	r1 := document.NewRaw(document.PowerElement, 1, 1, "R1")
	r2 := document.NewRaw(document.PowerElement, 1, 1, "R2")
	d.Components = []document.Component{r1, r2}
	a, err := d.Attach(r1, ext, attachment.External)
	if err != nil {
		t.Fatal(err)
	}
	if err := r1.SetRef("lossFileHashValue", a.Hash()); err != nil {
		t.Fatal(err)
	}
	d.Attachments.Add(attachment.NewEmbedded(filepath.Join(dir, "spare.dat"), []byte("x"), path))
	saveModel(t, path, d)
	if err := os.Remove(ext); err != nil {
		t.Fatal(err)
	}

	r := Check(path, Options{})
	if r.OK() {
		t.Fatal("expected problems")
	}
	var msgs []string
	for _, f := range r.Findings {
		msgs = append(msgs, f.Severity.String()+": "+f.Message)
	}
	all := strings.Join(msgs, "\n")
	for _, want := range []string{"share identifier 1", "not used by any component", "problem: "} {
		if !strings.Contains(all, want) {
			t.Errorf("findings missing %q:\n%s", want, all)
		}
	}
}

func TestCheck_ScriptSourceIsUsed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scripted.ipes")
	d := document.New()
	d.Path = path
	a := d.Attachments.Add(attachment.NewEmbedded(filepath.Join(dir, "Helper.java"), []byte("class Helper {}"), path))
	if err := d.UseInScript(a.Hash()); err != nil {
		t.Fatal(err)
	}
	saveModel(t, path, d)

	r := Check(path, Options{})
	if !r.OK() || len(r.Findings) != 0 {
		t.Fatalf("script source should count as used: %+v", r)
	}
}

func TestCheck_PlainTextAndLegacyVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.ipes")
	if err := os.WriteFile(path, []byte("tDURATION 0.1\ndt 1.0E-6\nFileVersion 120\nUniqueFileId 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	r := Check(path, Options{})
	if !r.OK() {
		t.Fatalf("legacy file should load: %+v", r)
	}
	if r.Framing != ipesfile.Plain {
		t.Fatalf("Framing = %v", r.Framing)
	}
	if len(r.Findings) != 2 || r.Findings[0].Severity != Info || r.Findings[1].Severity != Warning {
		t.Fatalf("Findings = %+v", r.Findings)
	}
}

func TestRun_ManyFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.ipes", "b.ipes", "c.ipes"} {
		path := filepath.Join(dir, name)
		d := document.New()
		d.Path = path
		saveModel(t, path, d)
		paths = append(paths, path)
	}
	paths = append(paths, filepath.Join(dir, "missing.ipes"))

	results, err := Run(context.Background(), paths, Options{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Fatalf("result %d is for %s, want %s", i, r.Path, paths[i])
		}
	}
	if results[3].Err == nil {
		t.Fatal("missing file should fail")
	}

	var buf bytes.Buffer
	if failed := Render(&buf, results); failed != 1 {
		t.Fatalf("failed = %d, want 1\n%s", failed, buf.String())
	}
	if !strings.Contains(buf.String(), "4 checked, 1 failed") {
		t.Fatalf("summary missing:\n%s", buf.String())
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, []string{"x.ipes"}, Options{})
	if err == nil {
		t.Fatal("expected context error")
	}
}
