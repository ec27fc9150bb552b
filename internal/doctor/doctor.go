// Package doctor checks model files for problems that do not stop them
// from loading: version drift, missing or unused attachments, duplicate
// identifiers and legacy framing.
package doctor

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/jorge-barreto/ipes/internal/document"
	"github.com/jorge-barreto/ipes/internal/fileblocks"
	"github.com/jorge-barreto/ipes/internal/ipesfile"
	"github.com/jorge-barreto/ipes/internal/ux"
)

type Severity int

const (
	Info Severity = iota
	Warning
	Problem
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	}
	return "problem"
}

type Finding struct {
	Severity Severity
	Message  string
}

// Result is the outcome of checking one file. Err is set when the file
// could not be read as a model at all.
type Result struct {
	Path       string
	DocumentID int32
	Framing    ipesfile.Framing
	Findings   []Finding
	Err        error
}

// OK reports whether the file loaded and has no problems.
func (r *Result) OK() bool {
	if r.Err != nil {
		return false
	}
	for _, f := range r.Findings {
		if f.Severity == Problem {
			return false
		}
	}
	return true
}

func (r *Result) add(s Severity, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{Severity: s, Message: fmt.Sprintf(format, args...)})
}

type Options struct {
	Release         int
	OldestSupported int
	Strict          bool
	Logger          *log.Logger
	// Workers bounds the files checked at once; 0 means one per CPU.
	Workers int
}

// Run checks every path, each in its own goroutine. Per-file failures are
// reported in the results; the error is only set when ctx is cancelled.
func Run(ctx context.Context, paths []string, opts Options) ([]Result, error) {
	results := make([]Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Check(path, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Check loads the model at path and inspects it.
func Check(path string, opts Options) Result {
	r := Result{Path: path}
	text, framing, err := ipesfile.Load(path)
	r.Framing = framing
	if err != nil {
		r.Err = err
		return r
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("file", path)
	}
	d, report, err := document.Import(fileblocks.SplitLines(text), document.Options{
		DocumentPath:    path,
		Strict:          opts.Strict,
		Release:         opts.Release,
		OldestSupported: opts.OldestSupported,
		Logger:          logger,
	})
	if err != nil {
		r.Err = err
		return r
	}
	r.DocumentID = d.ID

	if framing != ipesfile.Gzip {
		r.add(Info, "stored as %s; saving will compress it with gzip", framing)
	}
	for _, w := range report.Warnings {
		r.add(Warning, "%v", w)
	}
	for _, e := range report.AttachmentErrors {
		r.add(Problem, "%v", e)
	}
	checkIdentifiers(&r, d)
	checkAttachments(&r, d)
	return r
}

func checkIdentifiers(r *Result, d *document.Document) {
	seen := make(map[int64]string)
	for _, c := range d.Components {
		if prev, dup := seen[c.ID()]; dup {
			r.add(Problem, "components %q and %q share identifier %d", prev, c.Name(), c.ID())
			continue
		}
		seen[c.ID()] = c.Name()
	}
}

func checkAttachments(r *Result, d *document.Document) {
	unused := d.Unused()
	for _, a := range d.Attachments.All() {
		if slices.Contains(unused, a.Hash()) {
			r.add(Warning, "attachment %s (%d) is not used by any component", a.Name(), a.Hash())
			continue
		}
		for _, id := range a.Users() {
			if id == document.ScriptUser {
				continue
			}
			if _, ok := d.Component(id); !ok {
				r.add(Warning, "attachment %s (%d) lists unknown component %d", a.Name(), a.Hash(), id)
			}
		}
	}
}

// Render prints the results and returns the number of files that failed.
func Render(w io.Writer, results []Result) int {
	failed := 0
	for i := range results {
		r := &results[i]
		if !r.OK() {
			failed++
		}
		switch {
		case r.Err != nil:
			ux.Fail(w, fmt.Sprintf("%s: %v", ux.Path(r.Path), r.Err))
			continue
		case r.OK():
			ux.Success(w, fmt.Sprintf("%s %s", ux.Path(r.Path), ux.Muted(fmt.Sprintf("(document %d)", r.DocumentID))))
		default:
			ux.Fail(w, fmt.Sprintf("%s %s", ux.Path(r.Path), ux.Muted(fmt.Sprintf("(document %d)", r.DocumentID))))
		}
		for _, f := range r.Findings {
			if f.Severity == Info {
				fmt.Fprintf(w, "    %s\n", ux.Muted(f.Message))
				continue
			}
			ux.Warn(w, f.Severity.String()+": "+f.Message)
		}
	}
	fmt.Fprintf(w, "\n%d checked, %d failed\n", len(results), failed)
	return failed
}
