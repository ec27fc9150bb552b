package document

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedAttachment is returned when a component references an
	// attachment hash that the file does not define.
	ErrUnresolvedAttachment = errors.New("unresolved attachment reference")
	// ErrUnknownComponent is returned for a block no factory can build.
	ErrUnknownComponent = errors.New("unknown component type")
	// ErrNoDocumentID is returned by ProbeID for files without a
	// UniqueFileId, typically written by old releases.
	ErrNoDocumentID = errors.New("file has no document id")
)

// VersionKind tells the two version warnings apart.
type VersionKind int

const (
	LegacyVersion VersionKind = iota
	NewerVersion
)

// VersionWarning reports a FileVersion outside the supported range. It is
// advisory; the import continues.
type VersionWarning struct {
	Kind    VersionKind
	Found   int
	Oldest  int
	Release int
}

func (w *VersionWarning) Error() string {
	if w.Kind == LegacyVersion {
		return fmt.Sprintf("file version %d predates %d; saving will rewrite it as version %d", w.Found, w.Oldest, w.Release)
	}
	return fmt.Sprintf("file version %d was written by a newer release than %d; some settings may be lost", w.Found, w.Release)
}

// Report collects the recoverable problems of one import.
type Report struct {
	// Warnings are tolerated format problems and version notices.
	Warnings []error
	// AttachmentErrors are attachments that could not be rebuilt.
	AttachmentErrors []error
	// Missing lists the hashes of external attachments whose file was not
	// found.
	Missing []int64
}

// Clean reports whether the import had nothing to report.
func (r *Report) Clean() bool {
	return len(r.Warnings) == 0 && len(r.AttachmentErrors) == 0
}
