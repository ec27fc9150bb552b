package scaffold

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/ipes/internal/config"
	"github.com/jorge-barreto/ipes/internal/ux"
)

var configTemplate = `# ipes project settings. Run 'ipes docs config' for every key.
release: 201
oldest-supported: 160

# gzip level for saved models: -1 default, 0 none, 9 smallest
compression: -1

# storage for newly attached files: embedded or external
default-storage: embedded

# stop on unreadable values instead of using defaults
strict: false

backup:
  dir: .ipes-backup
  keep: 5

log:
  level: warn
`

// Init writes a .ipes.yaml with the default settings into targetDir.
func Init(targetDir string, w io.Writer) error {
	path := filepath.Join(targetDir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, targetDir)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", config.FileName, err)
	}

	fmt.Fprintln(w)
	ux.Success(w, "Initialized "+config.FileName)
	fmt.Fprintf(w, "\n  Next steps:\n")
	fmt.Fprintf(w, "    1. Edit %s to match your models\n", ux.Path(config.FileName))
	fmt.Fprintf(w, "    2. Run %s to check them\n\n", ux.Path("ipes doctor *.ipes"))
	return nil
}
