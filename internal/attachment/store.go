package attachment

import (
	"fmt"
	"strings"

	"github.com/jorge-barreto/ipes/internal/codec"
	"github.com/jorge-barreto/ipes/internal/fileblocks"
)

// ManagerTag opens the block holding every attachment of a document.
const ManagerTag = "GeckoFileManager"

// Store is the set of attachments owned by one document, unique by hash.
// It is not safe for concurrent use.
type Store struct {
	byHash map[int64]*Attachment
	order  []int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byHash: make(map[int64]*Attachment)}
}

// Len returns the number of attachments.
func (s *Store) Len() int { return len(s.order) }

// Get returns the attachment with hash.
func (s *Store) Get(hash int64) (*Attachment, error) {
	a, ok := s.byHash[hash]
	if !ok {
		return nil, fmt.Errorf("attachment %d: %w", hash, ErrNotFound)
	}
	return a, nil
}

// Lookup is Get without the error.
func (s *Store) Lookup(hash int64) (*Attachment, bool) {
	a, ok := s.byHash[hash]
	return a, ok
}

// All returns the attachments in insertion order.
func (s *Store) All() []*Attachment {
	out := make([]*Attachment, 0, len(s.order))
	for _, h := range s.order {
		out = append(out, s.byHash[h])
	}
	return out
}

// Hashes returns the attachment hashes in insertion order.
func (s *Store) Hashes() []int64 {
	return append([]int64(nil), s.order...)
}

// ByExtension returns the attachments whose file extension is ext. The
// leading dot is optional.
func (s *Store) ByExtension(ext string) []*Attachment {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	var out []*Attachment
	for _, a := range s.All() {
		if a.Extension() == ext {
			out = append(out, a)
		}
	}
	return out
}

// Add inserts a unless an attachment with the same hash is already stored,
// and returns the stored one.
func (s *Store) Add(a *Attachment) *Attachment {
	if cur, ok := s.byHash[a.hash]; ok {
		return cur
	}
	s.byHash[a.hash] = a
	s.order = append(s.order, a.hash)
	return a
}

// Remove drops the attachment with hash regardless of its users.
func (s *Store) Remove(hash int64) bool {
	if _, ok := s.byHash[hash]; !ok {
		return false
	}
	delete(s.byHash, hash)
	for i, h := range s.order {
		if h == hash {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Maintain removes the attachment with hash if nothing uses it any more.
// It reports whether the attachment was removed.
func (s *Store) Maintain(hash int64) bool {
	a, ok := s.byHash[hash]
	if !ok || a.UserCount() > 0 {
		return false
	}
	return s.Remove(hash)
}

// MaintainAttachment is Maintain for an attachment value.
func (s *Store) MaintainAttachment(a *Attachment) bool {
	return s.Maintain(a.hash)
}

// RemoveAllUnused maintains every attachment and returns the hashes that
// were removed.
func (s *Store) RemoveAllUnused() []int64 {
	var removed []int64
	for _, h := range s.Hashes() {
		if s.Maintain(h) {
			removed = append(removed, h)
		}
	}
	return removed
}

// RecomputeAllRelativePaths updates every relative path for a document now
// stored at documentPath.
func (s *Store) RecomputeAllRelativePaths(documentPath string) {
	for _, a := range s.All() {
		a.RecomputeRelativePath(documentPath)
	}
}

// Export appends the manager block to w.
func (s *Store) Export(w *codec.Writer, collapseToEmbedded bool) error {
	w.Raw(ManagerTag)
	w.Open(ManagerTag)
	for _, a := range s.All() {
		if err := a.Export(w, collapseToEmbedded); err != nil {
			return err
		}
	}
	w.Close(ManagerTag)
	return nil
}

// ExportAll renders the manager block. collapseToEmbedded writes external
// attachments as embedded ones without changing them.
func (s *Store) ExportAll(collapseToEmbedded bool) (string, error) {
	w := codec.NewWriter()
	if err := s.Export(w, collapseToEmbedded); err != nil {
		return "", err
	}
	return w.String(), nil
}

// ReadStore rebuilds a store from a manager block. Attachments that cannot
// be rebuilt are left out and their errors returned; the store holds only
// complete attachments.
func ReadStore(b *fileblocks.Block, opts ReadOptions) (*Store, []error) {
	s := NewStore()
	var errs []error
	for _, fb := range b.Blocks(Tag) {
		a, err := FromBlock(fb, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if s.Add(a) != a {
			errs = append(errs, &fileblocks.FormatError{
				Line: fb.Line(), Key: "hashValue", Value: fmt.Sprint(a.hash), Want: "unique attachment hash",
			})
		}
	}
	return s, errs
}
