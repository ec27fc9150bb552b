// Package document reads and writes whole circuit models in the .ipes
// token format: components, solver and view settings, script sources,
// optimizer parameters and the attachment store.
package document

import (
	"encoding/binary"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jorge-barreto/ipes/internal/attachment"
)

const (
	// OldestSupported is the oldest FileVersion read without a warning.
	OldestSupported = 160
	// CurrentRelease is the FileVersion this build writes.
	CurrentRelease = 201
	// ScriptUser is the usage entry recorded for attachments the script
	// uses. It is never a component identifier.
	ScriptUser int64 = -1231231987
)

// SolverType selects the integration algorithm. Values are persisted.
type SolverType int

const (
	BackwardEuler SolverType = 0
	Trapezoidal   SolverType = 1
	GearShichman  SolverType = 2
)

func (s SolverType) String() string {
	switch s {
	case BackwardEuler:
		return "backward-euler"
	case Trapezoidal:
		return "trapezoidal"
	case GearShichman:
		return "gear-shichman"
	}
	return fmt.Sprintf("SolverType(%d)", int(s))
}

func (s SolverType) valid() bool {
	return s >= BackwardEuler && s <= GearShichman
}

// SolverSettings is consumed by the simulation kernel.
type SolverSettings struct {
	Duration    float64 // tDURATION
	Step        float64 // dt
	Pause       float64 // tPAUSE, -1 for none
	PreDuration float64 // T_pre, -1 for no pre-simulation
	PreStep     float64 // dt_pre
	Type        SolverType
}

// DisplayFlags are the per-domain label toggles of the schematic editor.
type DisplayFlags struct {
	Name      bool
	Parameter bool
	FlowDir   bool
	TextLine  bool
}

// ViewSettings are editor preferences saved with the model.
type ViewSettings struct {
	Dpix         int
	FontSize     int
	FontName     string
	WindowWidth  int
	WindowHeight int
	WorksheetX   int
	WorksheetY   int
	Power        DisplayFlags
	Thermal      DisplayFlags
	Control      DisplayFlags // FlowDir is not persisted for control
}

// Script holds the embedded script sources and the attachments holding
// additional source files.
type Script struct {
	Code         string
	Imports      string
	Declarations string
	ExtraFiles   []int64
}

// Parameter is a named global value used by parametric and optimizer runs.
type Parameter struct {
	Name  string
	Value float64
}

// Document is one model in memory. It is not safe for concurrent use.
type Document struct {
	ID          int32 // UniqueFileId
	FileVersion int   // version read from the file, -1 if absent
	Path        string
	Stored      time.Time // DtStor
	Solver      SolverSettings
	View        ViewSettings
	Script      Script
	Parameters  []Parameter
	Signals     []string
	Components  []Component
	Attachments *attachment.Store
}

// NewDocumentID returns a random document id.
func NewDocumentID() int32 {
	u := uuid.New()
	return int32(binary.BigEndian.Uint32(u[:4]))
}

// New returns an empty document with the settings of a new model.
func New() *Document {
	return &Document{
		ID:          NewDocumentID(),
		FileVersion: CurrentRelease,
		Path:        "Untitled",
		Solver: SolverSettings{
			Duration:    0.02,
			Step:        1e-6,
			Pause:       -1,
			PreDuration: -1,
			PreStep:     1e-6,
			Type:        BackwardEuler,
		},
		View: ViewSettings{
			Dpix:         16,
			FontSize:     12,
			FontName:     "Arial",
			WindowWidth:  -1,
			WindowHeight: -1,
			WorksheetX:   40,
			WorksheetY:   40,
			Power:        DisplayFlags{Name: true, Parameter: true, FlowDir: true},
			Thermal:      DisplayFlags{Name: true, Parameter: true, FlowDir: true},
			Control:      DisplayFlags{Name: true, Parameter: true},
		},
		Attachments: attachment.NewStore(),
	}
}

// Component returns the component with id.
func (d *Document) Component(id int64) (Component, bool) {
	for _, c := range d.Components {
		if c.ID() == id {
			return c, true
		}
	}
	return nil, false
}

// Attach adds the file at path to the store on behalf of c and returns the
// stored attachment. The caller records the hash on the component.
func (d *Document) Attach(c Component, path string, t attachment.StorageType) (*attachment.Attachment, error) {
	a, err := attachment.FromDisk(path, t, d.Path)
	if err != nil {
		return nil, err
	}
	a = d.Attachments.Add(a)
	a.AddUser(c.ID())
	return a, nil
}

// Detach drops c's use of the attachment with hash and evicts it when no
// component uses it any more.
func (d *Document) Detach(c Component, hash int64) {
	if a, ok := d.Attachments.Lookup(hash); ok {
		a.RemoveUser(c.ID())
		d.Attachments.Maintain(hash)
	}
}

// AttachScript adds the file at path to the store as an additional script
// source file.
func (d *Document) AttachScript(path string, t attachment.StorageType) (*attachment.Attachment, error) {
	a, err := attachment.FromDisk(path, t, d.Path)
	if err != nil {
		return nil, err
	}
	a = d.Attachments.Add(a)
	if err := d.UseInScript(a.Hash()); err != nil {
		return nil, err
	}
	return a, nil
}

// UseInScript lists the stored attachment with hash among the script source
// files.
func (d *Document) UseInScript(hash int64) error {
	a, err := d.Attachments.Get(hash)
	if err != nil {
		return err
	}
	a.AddUser(ScriptUser)
	if !slices.Contains(d.Script.ExtraFiles, hash) {
		d.Script.ExtraFiles = append(d.Script.ExtraFiles, hash)
	}
	return nil
}

// DetachScript drops a script source file and evicts the attachment when
// nothing else uses it.
func (d *Document) DetachScript(hash int64) {
	d.Script.ExtraFiles = slices.DeleteFunc(d.Script.ExtraFiles, func(h int64) bool { return h == hash })
	if a, ok := d.Attachments.Lookup(hash); ok {
		a.RemoveUser(ScriptUser)
		d.Attachments.Maintain(hash)
	}
}

// references maps every attachment hash in use to its users: the
// components referencing it and ScriptUser for script source files.
func (d *Document) references() map[int64][]int64 {
	refs := make(map[int64][]int64)
	for _, c := range d.Components {
		for _, h := range c.AttachmentRefs() {
			refs[h] = append(refs[h], c.ID())
		}
	}
	for _, h := range d.Script.ExtraFiles {
		refs[h] = append(refs[h], ScriptUser)
	}
	return refs
}

// ReconcileUsers adds to each attachment's usage set every component and
// the script when they reference it. Usage entries are only added, never
// removed.
func (d *Document) ReconcileUsers() {
	for h, users := range d.references() {
		a, ok := d.Attachments.Lookup(h)
		if !ok {
			continue
		}
		for _, id := range users {
			a.AddUser(id)
		}
	}
}

// Unused returns the hashes of attachments with no usage entry that
// nothing references either.
func (d *Document) Unused() []int64 {
	refs := d.references()
	var out []int64
	for _, a := range d.Attachments.All() {
		if _, used := refs[a.Hash()]; !used && a.UserCount() == 0 {
			out = append(out, a.Hash())
		}
	}
	return out
}

// RemoveUnusedAttachments reconciles usage sets with the references held
// by components and the script, then evicts what nothing uses. It returns
// the removed hashes.
func (d *Document) RemoveUnusedAttachments() []int64 {
	d.ReconcileUsers()
	return d.Attachments.RemoveAllUnused()
}

// RemoveComponent deletes the component with id and releases its
// attachments.
func (d *Document) RemoveComponent(id int64) bool {
	i := slices.IndexFunc(d.Components, func(c Component) bool { return c.ID() == id })
	if i < 0 {
		return false
	}
	c := d.Components[i]
	d.Components = slices.Delete(d.Components, i, i+1)
	for _, h := range c.AttachmentRefs() {
		d.Detach(c, h)
	}
	return true
}

// SaveAs moves the document to path, re-deriving every attachment's
// relative path.
func (d *Document) SaveAs(path string) {
	d.Path = path
	d.Attachments.RecomputeAllRelativePaths(path)
}

// ShiftIdentifiers adds delta to every component identifier and every
// attachment usage entry, so the model can be pasted into another one
// without id clashes.
func (d *Document) ShiftIdentifiers(delta int64) {
	for _, c := range d.Components {
		c.Shift(delta)
	}
	for _, a := range d.Attachments.All() {
		a.ShiftUsers(delta, ScriptUser)
	}
}

// Unresolved returns the attachment hashes referenced by components or the
// script that are not in the store.
func (d *Document) Unresolved() []int64 {
	var out []int64
	check := func(h int64) {
		if _, ok := d.Attachments.Lookup(h); !ok && !slices.Contains(out, h) {
			out = append(out, h)
		}
	}
	for _, c := range d.Components {
		for _, h := range c.AttachmentRefs() {
			check(h)
		}
	}
	for _, h := range d.Script.ExtraFiles {
		check(h)
	}
	return out
}
