// Package attachment manages the auxiliary files a model refers to: loss
// curves, non-linear characteristics, script sources. Each file has a hash
// identity that survives moving the model or switching between embedded
// and external storage.
package attachment

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// StorageType selects where an attachment's bytes live. The numeric values
// are persisted.
type StorageType int

const (
	Embedded StorageType = 0
	External StorageType = 1
)

func (t StorageType) String() string {
	switch t {
	case Embedded:
		return "embedded"
	case External:
		return "external"
	}
	return fmt.Sprintf("StorageType(%d)", int(t))
}

// ParseStorageType accepts the names printed by String.
func ParseStorageType(s string) (StorageType, error) {
	switch s {
	case "embedded", "internal":
		return Embedded, nil
	case "external":
		return External, nil
	}
	return 0, fmt.Errorf("unknown storage type %q (want embedded or external)", s)
}

// storage is either embedded or external.
type storage interface {
	storageType() StorageType
}

type embedded struct {
	data []byte
}

func (embedded) storageType() StorageType { return Embedded }

type external struct {
	path string
}

func (external) storageType() StorageType { return External }

// Attachment is one auxiliary file.
type Attachment struct {
	hash    int64
	absPath string
	relPath string
	sep     string
	ext     string
	located string // file on disk the content was or will be read from
	modTime time.Time
	users   []int64
	store   storage
}

func newHash(absPath, relPath string) int64 {
	var salt [8]byte
	for {
		binary.LittleEndian.PutUint64(salt[:], rand.Uint64())
		d := xxhash.New()
		d.WriteString(absPath)
		d.Write([]byte{0})
		d.WriteString(relPath)
		d.Write([]byte{0})
		d.Write(salt[:])
		if h := int64(d.Sum64()); h != 0 && h != -1 {
			return h
		}
	}
}

// FromDisk creates an attachment for the file at path. Embedded content is
// read immediately.
func FromDisk(path string, t StorageType, documentPath string) (*Attachment, error) {
	fi, ok := exists(path)
	if !ok {
		return nil, &NotFoundError{AbsPath: path}
	}
	abs := canonical(path)
	sep := string(filepath.Separator)
	a := &Attachment{
		absPath: abs,
		relPath: RelativePath(abs, documentPath, filepath.Separator),
		sep:     sep,
		ext:     extension(abs, sep),
		located: abs,
		modTime: fi.ModTime(),
	}
	switch t {
	case Embedded:
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", abs, err)
		}
		a.store = embedded{data: data}
	case External:
		a.store = external{path: abs}
	default:
		return nil, fmt.Errorf("unknown storage type %d", int(t))
	}
	a.hash = newHash(a.absPath, a.relPath)
	return a, nil
}

// NewEmbedded creates an embedded attachment from bytes already in memory.
// name is recorded as the absolute path.
func NewEmbedded(name string, data []byte, documentPath string) *Attachment {
	sep := string(filepath.Separator)
	a := &Attachment{
		absPath: name,
		relPath: RelativePath(name, documentPath, filepath.Separator),
		sep:     sep,
		ext:     extension(name, sep),
		located: name,
		store:   embedded{data: data},
	}
	a.hash = newHash(a.absPath, a.relPath)
	return a
}

func (a *Attachment) Hash() int64              { return a.hash }
func (a *Attachment) AbsPath() string          { return a.absPath }
func (a *Attachment) RelPath() string          { return a.relPath }
func (a *Attachment) Separator() string        { return a.sep }
func (a *Attachment) Extension() string        { return a.ext }
func (a *Attachment) StorageType() StorageType { return a.store.storageType() }
func (a *Attachment) ModTime() time.Time       { return a.modTime }

// Name returns the last segment of the absolute path.
func (a *Attachment) Name() string {
	if a.sep == "" {
		return a.absPath
	}
	return a.absPath[strings.LastIndex(a.absPath, a.sep)+len(a.sep):]
}

// CurrentPath is the file on disk backing the attachment.
func (a *Attachment) CurrentPath() string {
	if e, ok := a.store.(external); ok {
		return e.path
	}
	return a.located
}

func (a *Attachment) String() string {
	if a.StorageType() == External {
		return a.relPath + " [EXTERNAL]"
	}
	return a.Name() + " [EMBEDDED]"
}

func (a *Attachment) readDisk(path string) ([]byte, error) {
	fi, ok := exists(path)
	if !ok {
		return nil, &NotFoundError{Hash: a.hash, AbsPath: path, RelPath: a.relPath}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attachment %s: %w", path, err)
	}
	a.modTime = fi.ModTime()
	return data, nil
}

// Content returns the attachment's bytes. Embedded content is returned
// without copying; external content is read from disk on every call.
func (a *Attachment) Content() ([]byte, error) {
	switch s := a.store.(type) {
	case embedded:
		return s.data, nil
	case external:
		return a.readDisk(s.path)
	}
	return nil, fmt.Errorf("attachment %d has no storage", a.hash)
}

// ContentCopy is Content without aliasing the embedded buffer.
func (a *Attachment) ContentCopy() ([]byte, error) {
	data, err := a.Content()
	if err != nil {
		return nil, err
	}
	if a.StorageType() == External {
		return data, nil
	}
	return bytes.Clone(data), nil
}

// Reader returns a reader over the current content.
func (a *Attachment) Reader() (io.Reader, error) {
	data, err := a.Content()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// SetStorageType converts the attachment to t. Moving embedded content out
// writes it to target, which must be given; documentPath is used to derive
// the new relative path. The hash does not change.
func (a *Attachment) SetStorageType(t StorageType, target, documentPath string) error {
	if t == a.StorageType() {
		return nil
	}
	switch t {
	case Embedded:
		data, err := a.Content()
		if err != nil {
			return err
		}
		a.store = embedded{data: data}
		return nil
	case External:
		if target == "" {
			return ErrTargetRequired
		}
		data, err := a.Content()
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("writing attachment to %s: %w", target, err)
		}
		abs := canonical(target)
		if fi, ok := exists(abs); ok {
			a.modTime = fi.ModTime()
		}
		a.absPath = abs
		a.sep = string(filepath.Separator)
		a.relPath = RelativePath(abs, documentPath, filepath.Separator)
		a.located = abs
		a.store = external{path: abs}
		return nil
	}
	return fmt.Errorf("unknown storage type %d", int(t))
}

// ToEmbedded pulls external content into the document.
func (a *Attachment) ToEmbedded() error {
	return a.SetStorageType(Embedded, "", "")
}

// ToExternal writes embedded content to target and references it from
// there.
func (a *Attachment) ToExternal(target, documentPath string) error {
	return a.SetStorageType(External, target, documentPath)
}

// RecomputeRelativePath re-derives the relative path after the document
// moved to documentPath. Paths recorded with another system's separator
// are rewritten for this one, so absPath, relPath and the separator always
// agree.
func (a *Attachment) RecomputeRelativePath(documentPath string) {
	platform := string(filepath.Separator)
	a.absPath = convertSeparators(a.absPath, a.sep)
	a.sep = platform
	a.relPath = RelativePath(a.absPath, documentPath, filepath.Separator)
}

// Refresh points the attachment at path. Embedded content is re-read from
// it.
func (a *Attachment) Refresh(path string) error {
	switch a.store.(type) {
	case embedded:
		data, err := a.readDisk(path)
		if err != nil {
			return err
		}
		a.store = embedded{data: data}
	case external:
		fi, ok := exists(path)
		if !ok {
			return &NotFoundError{Hash: a.hash, AbsPath: path}
		}
		a.modTime = fi.ModTime()
		a.store = external{path: path}
	}
	a.located = path
	return nil
}

// CheckModified returns the modification time of the backing file,
// updating the recorded one for external attachments.
func (a *Attachment) CheckModified() (time.Time, error) {
	e, ok := a.store.(external)
	if !ok {
		return a.modTime, nil
	}
	fi, found := exists(e.path)
	if !found {
		return a.modTime, &NotFoundError{Hash: a.hash, AbsPath: e.path, RelPath: a.relPath}
	}
	a.modTime = fi.ModTime()
	return a.modTime, nil
}

// Changed reports whether an external file was modified since it was last
// read or checked.
func (a *Attachment) Changed() (bool, error) {
	before := a.modTime
	after, err := a.CheckModified()
	if err != nil {
		return false, err
	}
	return !after.Equal(before), nil
}

// AddUser records that component id references the attachment.
func (a *Attachment) AddUser(id int64) {
	if !slices.Contains(a.users, id) {
		a.users = append(a.users, id)
	}
}

// RemoveUser forgets component id.
func (a *Attachment) RemoveUser(id int64) {
	if i := slices.Index(a.users, id); i >= 0 {
		a.users = slices.Delete(a.users, i, i+1)
	}
}

func (a *Attachment) HasUser(id int64) bool { return slices.Contains(a.users, id) }
func (a *Attachment) UserCount() int        { return len(a.users) }

// Users returns the referencing component ids in insertion order.
func (a *Attachment) Users() []int64 {
	return slices.Clone(a.users)
}

// ShiftUsers adds delta to every user id except those listed in fixed.
func (a *Attachment) ShiftUsers(delta int64, fixed ...int64) {
	for i, id := range a.users {
		if !slices.Contains(fixed, id) {
			a.users[i] += delta
		}
	}
}
