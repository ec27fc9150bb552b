package attachment

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jorge-barreto/ipes/internal/codec"
	"github.com/jorge-barreto/ipes/internal/fileblocks"
)

// Tag opens the block of one attachment.
const Tag = "GeckoFile"

const usageTag = "usageList"

// ReadOptions carries what reconstruction needs from the document being
// loaded.
type ReadOptions struct {
	// DocumentPath is the path the document was loaded from. With "" or
	// "Untitled" only the stored absolute path is tried.
	DocumentPath string
	// Resolve maps a component name to its id. Files written before usage
	// lists held numeric ids stored names instead.
	Resolve func(name string) (int64, bool)
	// Warn receives recoverable problems. May be nil.
	Warn func(error)
}

func (o ReadOptions) warn(err error) {
	if o.Warn != nil {
		o.Warn(err)
	}
}

// resolveLegacyUser handles usage entries that are not numeric ids.
func resolveLegacyUser(hash int64, name string, opts ReadOptions) (int64, bool) {
	if opts.Resolve != nil {
		if id, ok := opts.Resolve(name); ok {
			return id, true
		}
	}
	opts.warn(&LegacyNameError{Hash: hash, Name: name})
	return 0, false
}

// readUsers prefers the nested block, one entry per line, over the
// usageList[] line.
func readUsers(b *fileblocks.Block) []string {
	if sub, ok := b.Block(usageTag); ok {
		return sub.Lines()
	}
	raw, ok := b.Value(usageTag + codec.ArraySuffix)
	if !ok {
		return nil
	}
	entries, _ := codec.SplitValues(raw)
	return entries
}

// FromBlock rebuilds an attachment from its <GeckoFile> block. The file is
// looked up next to the document first, then at its stored absolute path;
// an external attachment found in neither place fails with a
// *NotFoundError.
func FromBlock(b *fileblocks.Block, opts ReadOptions) (*Attachment, error) {
	platform := string(filepath.Separator)

	if !b.ContainsKey("hashValue") {
		return nil, &fileblocks.FormatError{Line: b.Line(), Key: "hashValue", Want: "attachment hash"}
	}
	hash, err := fileblocks.Get(b, "hashValue", int64(-1))
	if err != nil {
		return nil, err
	}
	sep, err := fileblocks.Get(b, "fileSep", platform)
	if err != nil {
		return nil, err
	}
	if sep == "" {
		sep = platform
	}
	kind, err := fileblocks.Get(b, "isExternal", int(External))
	if err != nil {
		return nil, err
	}
	if kind != int(Embedded) && kind != int(External) {
		return nil, &fileblocks.FormatError{Line: b.Line(), Key: "isExternal", Value: strconv.Itoa(kind), Want: "storage type 0 or 1"}
	}
	absPath, err := fileblocks.Get(b, "absPath", "")
	if err != nil {
		return nil, err
	}
	relPath, err := fileblocks.Get(b, "relPath", "")
	if err != nil {
		return nil, err
	}

	a := &Attachment{hash: hash, sep: sep, ext: extension(absPath, sep)}

	for _, e := range readUsers(b) {
		id, err := strconv.ParseInt(e, 10, 64)
		if err != nil {
			var ok bool
			if id, ok = resolveLegacyUser(hash, e, opts); !ok {
				continue
			}
		}
		a.AddUser(id)
	}

	if StorageType(kind) == Embedded {
		data, err := b.Bytes("fileContents")
		if err != nil {
			return nil, err
		}
		if data == nil {
			data = []byte{}
		}
		a.store = embedded{data: data}
	}

	abs := convertSeparators(absPath, sep)
	rel := convertSeparators(relPath, sep)
	a.absPath, a.relPath = absPath, relPath

	var (
		fi        os.FileInfo
		found     bool
		candidate string
	)
	if dir, ok := documentDir(opts.DocumentPath, filepath.Separator); ok && rel != "" && !isAbsolute(rel) {
		candidate = filepath.Join(dir, rel)
		fi, found = exists(candidate)
	}
	if found {
		a.located = candidate
		a.absPath = absolute(candidate)
		a.relPath = rel
		a.sep = platform
	} else if fi, found = exists(abs); found {
		a.located = abs
		a.absPath = abs
		a.relPath = RelativePath(abs, opts.DocumentPath, filepath.Separator)
		a.sep = platform
	} else if StorageType(kind) == External {
		return nil, &NotFoundError{Hash: hash, AbsPath: abs, RelPath: rel}
	} else {
		a.located = abs
	}

	if found {
		a.modTime = fi.ModTime()
	}
	if StorageType(kind) == External {
		a.store = external{path: a.located}
	}
	return a, nil
}

// Export appends the <GeckoFile> block. With collapse set an external
// attachment is read and written as embedded content; the attachment
// itself stays external.
func (a *Attachment) Export(w *codec.Writer, collapse bool) error {
	kind := a.StorageType()
	var data []byte
	if kind == Embedded || collapse {
		var err error
		if data, err = a.Content(); err != nil {
			return fmt.Errorf("exporting attachment %s: %w", a.Name(), err)
		}
		kind = Embedded
	}

	w.Open(Tag)
	w.Int64("hashValue", a.hash)
	w.Str("absPath", a.absPath)
	w.Str("relPath", a.relPath)
	w.Str("fileSep", a.sep)
	w.Int("isExternal", int(kind))
	users := a.users
	if users == nil {
		users = []int64{}
	}
	w.Int64s(usageTag, users)
	w.Open(usageTag)
	for _, id := range a.users {
		w.Raw(strconv.FormatInt(id, 10))
	}
	w.Close(usageTag)
	if kind == Embedded {
		if data == nil {
			data = []byte{}
		}
		w.Bytes("fileContents", data)
	}
	w.Close(Tag)
	return nil
}
