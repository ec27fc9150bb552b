package attachment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelativePath(t *testing.T) {
	cases := []struct {
		name, file, doc, want string
	}{
		{"same directory", "/a/b/models/x.dat", "/a/b/models/doc.ipes", "x.dat"},
		{"subdirectory", "/a/b/models/data/x.dat", "/a/b/models/doc.ipes", "data/x.dat"},
		{"sibling", "/a/b/libs/x.dat", "/a/b/models/doc.ipes", "../libs/x.dat"},
		{"two levels up", "/a/libs/x.dat", "/a/b/models/doc.ipes", "../../libs/x.dat"},
		{"no common root", "/x/y.dat", "/z/doc.ipes", "/x/y.dat"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RelativePath(tc.file, tc.doc, '/'))
		})
	}
}

func TestRelativePath_UnsavedDocument(t *testing.T) {
	assert.Equal(t, "/a/x.dat", RelativePath("/a/x.dat", "", '/'))
	assert.Equal(t, "/a/x.dat", RelativePath("/a/x.dat", "Untitled", '/'))
}

func TestIsAbsolute(t *testing.T) {
	for _, p := range []string{"/x/y.dat", `C:\x\y.dat`, "c:/x", `\\server\share\y.dat`} {
		assert.True(t, isAbsolute(p), p)
	}
	for _, p := range []string{"y.dat", "../libs/y.dat", `libs\y.dat`, "C:"} {
		assert.False(t, isAbsolute(p), p)
	}
}

func TestRelativePath_WindowsSeparator(t *testing.T) {
	assert.Equal(t, `..\libs\x.dat`, RelativePath(`C:\a\libs\x.dat`, `C:\a\models\doc.ipes`, '\\'))
	assert.Equal(t, `D:\x.dat`, RelativePath(`D:\x.dat`, `C:\a\doc.ipes`, '\\'))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".dat", extension("/a/b/loss.curve.dat", "/"))
	assert.Equal(t, "", extension("/a/b.d/README", "/"))
	assert.Equal(t, ".java", extension(`C:\src\Main.java`, `\`))
}
