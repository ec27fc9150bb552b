// Package backup keeps compressed copies of models, indexed by the
// document id each file carries. Files without an id are indexed by their
// source path.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/jorge-barreto/ipes/internal/document"
	"github.com/jorge-barreto/ipes/internal/fileblocks"
	"github.com/jorge-barreto/ipes/internal/ipesfile"
)

const (
	indexName = "index.json"
	suffix    = ".ipes.bak"
)

// ErrMismatch is returned when a backup file no longer holds the document
// its index entry names.
var ErrMismatch = errors.New("backup holds a different document")

// session tags every backup written by this process.
var session = uuid.NewString()

type Entry struct {
	Name       string    `json:"name"`
	DocumentID int32     `json:"document_id"`
	NoID       bool      `json:"no_id,omitempty"`
	Source     string    `json:"source"`
	Created    time.Time `json:"created"`
	Session    string    `json:"session"`
}

// Index is the list of backups in one directory.
type Index struct {
	mu      sync.Mutex
	dir     string
	Entries []Entry `json:"entries"`
}

func indexPath(dir string) string {
	return filepath.Join(dir, indexName)
}

// Open reads the index in dir, creating the directory if needed.
func Open(dir string) (*Index, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}
	ix := &Index{dir: dir}
	data, err := os.ReadFile(indexPath(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ix, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, ix); err != nil {
		return nil, fmt.Errorf("reading %s: %w", indexPath(dir), err)
	}
	return ix, nil
}

// Dir returns the backup directory.
func (ix *Index) Dir() string { return ix.dir }

// Path returns the file holding e.
func (ix *Index) Path(e Entry) string { return filepath.Join(ix.dir, e.Name) }

func (ix *Index) save() error {
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return err
	}
	return ipesfile.WriteFileAtomic(indexPath(ix.dir), data, 0644)
}

// Write stores text, the content of the model at source, as a new backup.
// The document id is read from text itself; a file without one is filed
// under source only.
func (ix *Index) Write(source, text string, level int) (Entry, error) {
	e := Entry{
		Name:    ulid.Make().String() + suffix,
		Source:  source,
		Created: time.Now().UTC(),
		Session: session,
	}
	id, err := document.ProbeID(fileblocks.SplitLines(text))
	switch {
	case errors.Is(err, document.ErrNoDocumentID):
		e.NoID = true
	case err != nil:
		return Entry{}, fmt.Errorf("reading document id of %s: %w", source, err)
	default:
		e.DocumentID = id
	}
	if err := ipesfile.Save(ix.Path(e), text, level); err != nil {
		return Entry{}, err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.Entries = append(ix.Entries, e)
	return e, ix.save()
}

// key groups the backups of one document.
func (e Entry) key() string {
	if e.NoID {
		return "path:" + e.Source
	}
	return fmt.Sprintf("id:%d", e.DocumentID)
}

func (ix *Index) filter(match func(Entry) bool) []Entry {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	var out []Entry
	for _, e := range ix.Entries {
		if match(e) {
			out = append(out, e)
		}
	}
	// ULIDs sort by creation time.
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(b.Name, a.Name) })
	return out
}

// Find returns the backups of document id, newest first.
func (ix *Index) Find(id int32) []Entry {
	return ix.filter(func(e Entry) bool { return !e.NoID && e.DocumentID == id })
}

// FindSource returns every backup taken of the file at source, newest
// first, whether or not it carried a document id.
func (ix *Index) FindSource(source string) []Entry {
	return ix.filter(func(e Entry) bool { return e.Source == source })
}

// Latest returns the newest backup of document id.
func (ix *Index) Latest(id int32) (Entry, bool) {
	found := ix.Find(id)
	if len(found) == 0 {
		return Entry{}, false
	}
	return found[0], true
}

// Read returns the model text of e, checking it still belongs to e's
// document.
func (ix *Index) Read(e Entry) (string, error) {
	text, _, err := ipesfile.Load(ix.Path(e))
	if err != nil {
		return "", err
	}
	id, err := document.ProbeID(fileblocks.SplitLines(text))
	if e.NoID && errors.Is(err, document.ErrNoDocumentID) {
		return text, nil
	}
	if err != nil {
		return "", err
	}
	if e.NoID || id != e.DocumentID {
		return "", fmt.Errorf("%s: found document %d, want %d: %w", e.Name, id, e.DocumentID, ErrMismatch)
	}
	return text, nil
}

// Restore writes the content of e to dest.
func (ix *Index) Restore(e Entry, dest string, level int) error {
	text, err := ix.Read(e)
	if err != nil {
		return err
	}
	return ipesfile.Save(dest, text, level)
}

// Prune keeps the newest keep backups of every document and deletes the
// rest. It returns the removed entries.
func (ix *Index) Prune(keep int) ([]Entry, error) {
	if keep < 0 {
		keep = 0
	}
	keys := make(map[string]bool)
	ix.mu.Lock()
	for _, e := range ix.Entries {
		keys[e.key()] = true
	}
	ix.mu.Unlock()

	drop := make(map[string]bool)
	var removed []Entry
	for key := range keys {
		found := ix.filter(func(e Entry) bool { return e.key() == key })
		if len(found) <= keep {
			continue
		}
		for _, e := range found[keep:] {
			if err := os.Remove(ix.Path(e)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return removed, err
			}
			drop[e.Name] = true
			removed = append(removed, e)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.Entries = slices.DeleteFunc(ix.Entries, func(e Entry) bool { return drop[e.Name] })
	return removed, ix.save()
}
