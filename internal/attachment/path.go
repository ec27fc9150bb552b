package attachment

import (
	"os"
	"path/filepath"
	"strings"
)

// untitled is the document path of a model that was never saved.
const untitled = "Untitled"

// documentDir returns the directory relative paths are resolved against.
// A model that was never saved has none.
func documentDir(documentPath string, sep byte) (string, bool) {
	if documentPath == "" || documentPath == untitled {
		return "", false
	}
	i := strings.LastIndexByte(documentPath, sep)
	if i < 0 {
		return ".", true
	}
	if i == 0 {
		return documentPath[:1], true
	}
	return documentPath[:i], true
}

// isAbsolute reports whether p is rooted, either on this system or as a
// drive or UNC path written on Windows.
func isAbsolute(p string) bool {
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return true
	}
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/') &&
		(p[0] >= 'A' && p[0] <= 'Z' || p[0] >= 'a' && p[0] <= 'z')
}

func segments(p string, sep byte) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == rune(sep) })
}

// RelativePath expresses absFile relative to the directory holding
// documentPath, using sep between segments. When the two share no leading
// segment, or the document was never saved, the absolute path is returned
// unchanged.
func RelativePath(absFile, documentPath string, sep byte) string {
	dir, ok := documentDir(documentPath, sep)
	if !ok {
		return absFile
	}
	from := segments(absFile, sep)
	to := segments(dir, sep)

	common := 0
	for common < len(from) && common < len(to) && from[common] == to[common] {
		common++
	}

	if len(from) >= len(to) && common == len(to) {
		return strings.Join(from[common:], string(sep))
	}
	if common == 0 {
		return absFile
	}
	parts := make([]string, 0, len(to)-common+len(from)-common)
	for i := common; i < len(to); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, from[common:]...)
	return strings.Join(parts, string(sep))
}

// convertSeparators rewrites p written on a system using sep for this one.
func convertSeparators(p, sep string) string {
	platform := string(filepath.Separator)
	if sep == "" || sep == platform {
		return p
	}
	return strings.ReplaceAll(p, sep, platform)
}

func absolute(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// canonical resolves symlinks where possible.
func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

func exists(path string) (os.FileInfo, bool) {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return nil, false
	}
	return fi, true
}

// extension returns the suffix of the final path segment starting at its
// last dot, or "" when there is none.
func extension(path string, sep string) string {
	name := path
	if i := strings.LastIndex(path, sep); i >= 0 {
		name = path[i+len(sep):]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
