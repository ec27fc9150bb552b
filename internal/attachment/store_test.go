package attachment

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorge-barreto/ipes/internal/fileblocks"
)

func TestStore_AddIsIdempotent(t *testing.T) {
	s := NewStore()
	a := NewEmbedded("/m/x.dat", []byte("x"), "/m/doc.ipes")
	assert.Same(t, a, s.Add(a))
	assert.Same(t, a, s.Add(a))
	assert.Equal(t, 1, s.Len())

	got, err := s.Get(a.Hash())
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = s.Get(a.Hash() + 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ReferenceCounting(t *testing.T) {
	s := NewStore()
	a := s.Add(NewEmbedded("/m/loss.dat", []byte("x"), "/m/doc.ipes"))
	a.AddUser(1)
	a.AddUser(2)

	a.RemoveUser(1)
	assert.False(t, s.Maintain(a.Hash()))
	_, err := s.Get(a.Hash())
	require.NoError(t, err, "attachment still used by component 2")

	a.RemoveUser(2)
	assert.True(t, s.MaintainAttachment(a))
	_, err = s.Get(a.Hash())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RemoveAllUnused(t *testing.T) {
	s := NewStore()
	used := s.Add(NewEmbedded("/m/a.dat", nil, "/m/doc.ipes"))
	used.AddUser(1)
	unused := s.Add(NewEmbedded("/m/b.dat", nil, "/m/doc.ipes"))

	assert.Equal(t, []int64{unused.Hash()}, s.RemoveAllUnused())
	assert.Equal(t, []int64{used.Hash()}, s.Hashes())
}

func TestStore_ByExtension(t *testing.T) {
	s := NewStore()
	s.Add(NewEmbedded("/m/a.dat", nil, "/m/doc.ipes"))
	s.Add(NewEmbedded("/m/b.java", nil, "/m/doc.ipes"))
	s.Add(NewEmbedded("/m/c.dat", nil, "/m/doc.ipes"))

	assert.Len(t, s.ByExtension(".dat"), 2)
	assert.Len(t, s.ByExtension("java"), 1)
	assert.Empty(t, s.ByExtension(".txt"))
}

func TestStore_ExportAndRead(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.ipes")
	ext := writeFile(t, filepath.Join(dir, "ext.dat"), "external")

	s := NewStore()
	e, err := FromDisk(ext, External, doc)
	require.NoError(t, err)
	e.AddUser(1)
	s.Add(e)
	m := s.Add(NewEmbedded(filepath.Join(dir, "emb.dat"), []byte("embedded"), doc))
	m.AddUser(2)

	text, err := s.ExportAll(false)
	require.NoError(t, err)
	root, err := fileblocks.Parse(fileblocks.SplitLines(text))
	require.NoError(t, err)
	mgr, ok := root.Block(ManagerTag)
	require.True(t, ok)

	got, errs := ReadStore(mgr, ReadOptions{DocumentPath: doc})
	require.Empty(t, errs)
	assert.Equal(t, s.Hashes(), got.Hashes())
	ge, _ := got.Lookup(e.Hash())
	assert.Equal(t, External, ge.StorageType())
}

func TestStore_ReadSkipsMissingExternal(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.ipes")
	ext := writeFile(t, filepath.Join(dir, "ext.dat"), "external")

	s := NewStore()
	e, err := FromDisk(ext, External, doc)
	require.NoError(t, err)
	s.Add(e)
	m := s.Add(NewEmbedded(filepath.Join(dir, "emb.dat"), []byte("embedded"), doc))

	text, err := s.ExportAll(false)
	require.NoError(t, err)
	require.NoError(t, os.Remove(ext))

	root, err := fileblocks.Parse(fileblocks.SplitLines(text))
	require.NoError(t, err)
	mgr, _ := root.Block(ManagerTag)
	got, errs := ReadStore(mgr, ReadOptions{DocumentPath: doc})
	require.Len(t, errs, 1)
	var nf *NotFoundError
	require.True(t, errors.As(errs[0], &nf))
	assert.Equal(t, e.Hash(), nf.Hash)
	assert.Equal(t, []int64{m.Hash()}, got.Hashes())
}

func TestStore_ExportCollapse(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.ipes")
	ext := writeFile(t, filepath.Join(dir, "ext.dat"), "external")
	s := NewStore()
	e, err := FromDisk(ext, External, doc)
	require.NoError(t, err)
	s.Add(e)

	text, err := s.ExportAll(true)
	require.NoError(t, err)
	assert.Contains(t, text, "isExternal 0")
	assert.Contains(t, text, "fileContents[] ")
	assert.Equal(t, External, e.StorageType())
}

func TestStore_RecomputeAllRelativePaths(t *testing.T) {
	s := NewStore()
	a := s.Add(NewEmbedded("/a/b/libs/x.dat", nil, "/a/b/libs/doc.ipes"))
	assert.Equal(t, "x.dat", a.RelPath())
	s.RecomputeAllRelativePaths("/a/b/models/doc.ipes")
	if filepath.Separator == '/' {
		assert.Equal(t, "../libs/x.dat", a.RelPath())
	}
}
