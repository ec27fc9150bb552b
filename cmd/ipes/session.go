package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/ipes/internal/backup"
	"github.com/jorge-barreto/ipes/internal/config"
	"github.com/jorge-barreto/ipes/internal/document"
	"github.com/jorge-barreto/ipes/internal/ipesfile"
)

// session carries what every command needs: the project settings and a
// logger configured from them.
type session struct {
	cfg    *config.Config
	logger *log.Logger
}

func newSession(cmd *cli.Command) (*session, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, _, err := config.Find(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cmd.Bool("strict") {
		cfg.Strict = true
	}
	return &session{cfg: cfg, logger: newLogger(cfg)}, nil
}

func absPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", p, err)
	}
	return abs, nil
}

func (s *session) load(path string) (*document.Document, *document.Report, error) {
	abs, err := absPath(path)
	if err != nil {
		return nil, nil, err
	}
	lines, err := ipesfile.LoadLines(abs)
	if err != nil {
		return nil, nil, err
	}
	d, report, err := document.Import(lines, document.Options{
		DocumentPath:    abs,
		Strict:          s.cfg.Strict,
		Release:         s.cfg.Release,
		OldestSupported: s.cfg.OldestSupported,
		Logger:          s.logger.With("file", path),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return d, report, nil
}

func (s *session) save(d *document.Document, path string, collapse bool) error {
	text, err := document.Export(d, document.ExportOptions{Collapse: collapse, Release: s.cfg.Release})
	if err != nil {
		return err
	}
	return ipesfile.Save(path, text, s.cfg.Compression)
}

// replace backs up the file at path and then overwrites it with d.
func (s *session) replace(d *document.Document, path string) error {
	if _, err := s.backup(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("backing up %s: %w", path, err)
	}
	return s.save(d, path, false)
}

// backup stores the current content of path and prunes old copies.
func (s *session) backup(path string) (backup.Entry, error) {
	abs, err := absPath(path)
	if err != nil {
		return backup.Entry{}, err
	}
	text, _, err := ipesfile.Load(abs)
	if err != nil {
		return backup.Entry{}, err
	}
	ix, err := backup.Open(s.cfg.Backup.Dir)
	if err != nil {
		return backup.Entry{}, err
	}
	e, err := ix.Write(abs, text, s.cfg.Compression)
	if err != nil {
		return backup.Entry{}, err
	}
	removed, err := ix.Prune(s.cfg.Backup.Keep)
	if err != nil {
		return e, err
	}
	if len(removed) > 0 {
		s.logger.Debug("pruned backups", "count", len(removed), "document", e.DocumentID)
	}
	return e, nil
}
