package attachment

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an attachment's file, or an attachment
	// in a store, does not exist.
	ErrNotFound = errors.New("attachment not found")
	// ErrTargetRequired is returned when switching embedded content to an
	// external file without naming the file.
	ErrTargetRequired = errors.New("external storage needs a target path")
)

// NotFoundError names the paths that were tried.
type NotFoundError struct {
	Hash    int64
	AbsPath string
	RelPath string
}

func (e *NotFoundError) Error() string {
	if e.RelPath == "" || e.RelPath == e.AbsPath {
		return fmt.Sprintf("external file %s not found", e.AbsPath)
	}
	return fmt.Sprintf("external file not found (relative path %s, absolute path %s)", e.RelPath, e.AbsPath)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// LegacyNameError reports an old-style usage entry naming a component that
// does not exist. The entry is dropped.
type LegacyNameError struct {
	Hash int64
	Name string
}

func (e *LegacyNameError) Error() string {
	return fmt.Sprintf("attachment %d: usage entry %q matches no component, dropped", e.Hash, e.Name)
}
