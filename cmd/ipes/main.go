package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/log"
	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/ipes/internal/attachment"
	"github.com/jorge-barreto/ipes/internal/backup"
	"github.com/jorge-barreto/ipes/internal/config"
	"github.com/jorge-barreto/ipes/internal/docs"
	"github.com/jorge-barreto/ipes/internal/doctor"
	"github.com/jorge-barreto/ipes/internal/scaffold"
	"github.com/jorge-barreto/ipes/internal/ux"
)

func main() {
	app := &cli.Command{
		Name:        "ipes",
		Usage:       "Inspect and maintain GeckoCIRCUITS .ipes model files",
		Description: "Run 'ipes docs' for documentation on the file format, attachments, and configuration.",
		Commands: []*cli.Command{
			initCmd(),
			infoCmd(),
			attachmentsCmd(),
			packCmd(),
			relocateCmd(),
			embedCmd(),
			externCmd(),
			extractCmd(),
			gcCmd(),
			backupCmd(),
			restoreCmd(),
			doctorCmd(),
			docsCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		ux.Error(os.Stderr, err)
		os.Exit(1)
	}
}

func fileArg(cmd *cli.Command, i int, name string) (string, error) {
	v := cmd.Args().Get(i)
	if v == "" {
		return "", fmt.Errorf("%s argument is required", name)
	}
	return v, nil
}

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Summarize a model",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{strictFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := fileArg(cmd, 0, "file")
			if err != nil {
				return err
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			d, report, err := s.load(path)
			if err != nil {
				return err
			}
			ux.RenderInfo(os.Stdout, path, d, report, s.cfg.Release)
			return nil
		},
	}
}

func attachmentsCmd() *cli.Command {
	return &cli.Command{
		Name:      "attachments",
		Usage:     "List the files attached to a model",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := fileArg(cmd, 0, "file")
			if err != nil {
				return err
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			d, report, err := s.load(path)
			if err != nil {
				return err
			}
			ux.Warnings(os.Stderr, report.AttachmentErrors)
			ux.AttachmentTable(os.Stdout, d)
			return nil
		},
	}
}

func packCmd() *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "Write a self-contained copy with every attachment embedded",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Destination file", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := fileArg(cmd, 0, "file")
			if err != nil {
				return err
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			d, report, err := s.load(path)
			if err != nil {
				return err
			}
			if len(report.Missing) > 0 {
				return fmt.Errorf("%d external attachment(s) not found; run 'ipes doctor %s'", len(report.Missing), path)
			}
			out, err := absPath(cmd.String("output"))
			if err != nil {
				return err
			}
			d.SaveAs(out)
			if err := s.save(d, out, true); err != nil {
				return err
			}
			ux.Success(os.Stdout, "Packed "+ux.Path(out))
			return nil
		},
	}
}

func relocateCmd() *cli.Command {
	return &cli.Command{
		Name:      "relocate",
		Usage:     "Save a model under a new path, updating relative attachment paths",
		ArgsUsage: "<file> <dest>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := fileArg(cmd, 0, "file")
			if err != nil {
				return err
			}
			dest, err := fileArg(cmd, 1, "dest")
			if err != nil {
				return err
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			d, _, err := s.load(path)
			if err != nil {
				return err
			}
			if dest, err = absPath(dest); err != nil {
				return err
			}
			d.SaveAs(dest)
			if err := s.save(d, dest, false); err != nil {
				return err
			}
			ux.Success(os.Stdout, "Saved "+ux.Path(dest))
			return nil
		},
	}
}

func hashArg(cmd *cli.Command, i int) (int64, error) {
	v, err := fileArg(cmd, i, "hash")
	if err != nil {
		return 0, err
	}
	h, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("hash %q is not an integer", v)
	}
	return h, nil
}

func embedCmd() *cli.Command {
	return &cli.Command{
		Name:      "embed",
		Usage:     "Store an external attachment inside the model",
		ArgsUsage: "<file> <hash>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return changeStorage(cmd, attachment.Embedded)
		},
	}
}

func externCmd() *cli.Command {
	return &cli.Command{
		Name:      "extern",
		Usage:     "Write an embedded attachment to a file and reference it",
		ArgsUsage: "<file> <hash> <target>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return changeStorage(cmd, attachment.External)
		},
	}
}

func extractCmd() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Write the content of an attachment to a file or stdout",
		ArgsUsage: "<file> <hash>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Destination file (default: stdout)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := fileArg(cmd, 0, "file")
			if err != nil {
				return err
			}
			hash, err := hashArg(cmd, 1)
			if err != nil {
				return err
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			d, _, err := s.load(path)
			if err != nil {
				return err
			}
			a, err := d.Attachments.Get(hash)
			if err != nil {
				return err
			}
			r, err := a.Reader()
			if err != nil {
				return err
			}
			out := cmd.String("output")
			if out == "" {
				_, err = io.Copy(os.Stdout, r)
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			if _, err := io.Copy(f, r); err != nil {
				f.Close()
				return fmt.Errorf("writing %s: %w", out, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			ux.Success(os.Stderr, fmt.Sprintf("wrote %s to %s", a.Name(), ux.Path(out)))
			return nil
		},
	}
}

func changeStorage(cmd *cli.Command, to attachment.StorageType) error {
	path, err := fileArg(cmd, 0, "file")
	if err != nil {
		return err
	}
	hash, err := hashArg(cmd, 1)
	if err != nil {
		return err
	}
	target := ""
	if to == attachment.External {
		if target, err = fileArg(cmd, 2, "target"); err != nil {
			return err
		}
		if target, err = absPath(target); err != nil {
			return err
		}
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	d, _, err := s.load(path)
	if err != nil {
		return err
	}
	a, err := d.Attachments.Get(hash)
	if err != nil {
		return err
	}
	if err := a.SetStorageType(to, target, d.Path); err != nil {
		return err
	}
	if err := s.replace(d, path); err != nil {
		return err
	}
	ux.Success(os.Stdout, fmt.Sprintf("%s is now %s", a.Name(), to))
	return nil
}

func gcCmd() *cli.Command {
	return &cli.Command{
		Name:      "gc",
		Usage:     "Remove attachments no component uses",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := fileArg(cmd, 0, "file")
			if err != nil {
				return err
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			d, _, err := s.load(path)
			if err != nil {
				return err
			}
			removed := d.RemoveUnusedAttachments()
			if len(removed) == 0 {
				fmt.Println("Nothing to remove.")
				return nil
			}
			if err := s.replace(d, path); err != nil {
				return err
			}
			ux.Success(os.Stdout, fmt.Sprintf("Removed %d unused attachment(s)", len(removed)))
			return nil
		},
	}
}

func backupCmd() *cli.Command {
	return &cli.Command{
		Name:      "backup",
		Usage:     "Store a backup copy of a model",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := fileArg(cmd, 0, "file")
			if err != nil {
				return err
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			e, err := s.backup(path)
			if err != nil {
				return err
			}
			ux.Success(os.Stdout, fmt.Sprintf("Backed up document %d as %s", e.DocumentID, ux.Path(e.Name)))
			return nil
		},
	}
}

func restoreCmd() *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Restore the newest backup of a document",
		ArgsUsage: "<document-id|file>",
		Description: "Backups are looked up by document id. Models written by old releases\n" +
			"carry no id; give the path of the backed-up file instead.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Destination (default: the original path)"},
			&cli.BoolFlag{Name: "list", Usage: "List backups instead of restoring"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			v, err := fileArg(cmd, 0, "document-id or file")
			if err != nil {
				return err
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			ix, err := backup.Open(s.cfg.Backup.Dir)
			if err != nil {
				return err
			}
			var found []backup.Entry
			what := "document " + v
			if id, err := strconv.ParseInt(v, 10, 32); err == nil {
				found = ix.Find(int32(id))
			} else {
				abs, err := absPath(v)
				if err != nil {
					return err
				}
				found = ix.FindSource(abs)
				what = abs
			}
			if cmd.Bool("list") {
				for _, e := range found {
					fmt.Printf("  %s  %s  %s\n", e.Created.Local().Format("2006-01-02 15:04:05"), e.Name, ux.Muted(e.Source))
				}
				return nil
			}
			if len(found) == 0 {
				return fmt.Errorf("no backup of %s in %s", what, ix.Dir())
			}
			e := found[0]
			dest := cmd.String("output")
			if dest == "" {
				dest = e.Source
			}
			if err := ix.Restore(e, dest, s.cfg.Compression); err != nil {
				return err
			}
			ux.Success(os.Stdout, "Restored "+ux.Path(dest))
			return nil
		},
	}
}

func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:      "doctor",
		Usage:     "Check models for problems",
		ArgsUsage: "<file>...",
		Flags: []cli.Flag{
			strictFlag(),
			&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Usage: "Files checked at once (default: one per CPU)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return fmt.Errorf("at least one file is required")
			}
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			results, err := doctor.Run(ctx, paths, doctor.Options{
				Release:         s.cfg.Release,
				OldestSupported: s.cfg.OldestSupported,
				Strict:          s.cfg.Strict,
				Logger:          s.logger.WithPrefix("doctor"),
				Workers:         int(cmd.Int("jobs")),
			})
			if err != nil {
				return err
			}
			if failed := doctor.Render(os.Stdout, results); failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed", failed, len(results))
			}
			return nil
		},
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a " + config.FileName + " with the default settings",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			return scaffold.Init(dir, os.Stdout)
		},
	}
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation",
		ArgsUsage: "[topic]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				docs.WriteIndex(os.Stdout)
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return err
			}
			fmt.Print(t.Content)
			return nil
		},
	}
}

func strictFlag() cli.Flag {
	return &cli.BoolFlag{Name: "strict", Usage: "Treat unreadable values as errors"}
}

func newLogger(cfg *config.Config) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:  cfg.LogLevel(),
		Prefix: "ipes",
	})
}
