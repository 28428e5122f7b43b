package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/creativedesign-blip/document-review/internal/docreview"
	"github.com/creativedesign-blip/document-review/pkg/iojson"
)

type FilesCmd struct {
	flags *Flags
	app   *docreview.App

	// flags
	jsonOutput bool
	yes        bool
	output     string
}

// NewFilesCmd creates a new files command.
func NewFilesCmd(flags *Flags, app *docreview.App) *FilesCmd {
	return &FilesCmd{flags: flags, app: app}
}

// Register adds the files command group to the application.
func (cmd *FilesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "files",
		Usage: "Manage uploaded documents on the review server",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List uploaded documents",
				UsageText: "docrev files ls [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runLs,
			},
			{
				Name:      "upload",
				Usage:     "Upload documents for review",
				UsageText: "docrev files upload PATH_OR_GLOB...",
				Description: `Uploads one or more local files. Arguments may be literal paths or
doublestar globs, e.g. 'docs/**/*.pdf'.`,
				Action: cmd.runUpload,
			},
			{
				Name:      "get",
				Usage:     "Download an uploaded document",
				UsageText: "docrev files get NAME [-o PATH]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "output",
						Aliases:     []string{"o"},
						Usage:       "write to this path instead of the document name",
						Destination: &cmd.output,
					},
				},
				Action: cmd.runGet,
			},
			{
				Name:      "rm",
				Usage:     "Delete an uploaded document",
				UsageText: "docrev files rm NAME [--yes]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "yes",
						Aliases:     []string{"y"},
						Usage:       "skip the confirmation prompt",
						Destination: &cmd.yes,
					},
				},
				Action: cmd.runRm,
			},
		},
	})

	return app
}

func (cmd *FilesCmd) runLs(ctx context.Context, c *cli.Command) error {
	names, err := cmd.app.Client.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, names)
	}

	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "No files uploaded")
		return nil
	}
	for _, name := range names {
		_, _ = fmt.Fprintln(c.Root().Writer, name)
	}
	return nil
}

func (cmd *FilesCmd) runUpload(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("expected at least one path or glob")
	}

	var paths []string
	for _, arg := range c.Args().Slice() {
		if !doublestar.ValidatePattern(arg) {
			return fmt.Errorf("invalid glob pattern %q", arg)
		}

		base, pattern := doublestar.SplitPattern(arg)
		matches, err := doublestar.Glob(os.DirFS(base), pattern, doublestar.WithFilesOnly())
		if err != nil {
			return fmt.Errorf("glob %q: %w", arg, err)
		}
		for _, m := range matches {
			paths = append(paths, filepath.Join(base, m))
		}
	}

	if len(paths) == 0 {
		return fmt.Errorf("no files matched")
	}

	for _, path := range paths {
		if err := cmd.app.Client.UploadFile(ctx, path); err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}
		_, _ = fmt.Fprintf(c.Root().Writer, "Uploaded %s\n", path)
	}
	return nil
}

func (cmd *FilesCmd) runGet(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one NAME argument")
	}
	name := c.Args().First()

	dest := cmd.output
	if dest == "" {
		dest = filepath.Base(name)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer func() { _ = f.Close() }()

	if err := cmd.app.Client.DownloadFile(ctx, name, f); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("download %s: %w", name, err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Saved %s\n", dest)
	return nil
}

func (cmd *FilesCmd) runRm(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one NAME argument")
	}
	name := c.Args().First()

	if !cmd.yes {
		var confirmed bool
		err := huh.NewConfirm().
			Title("Delete uploaded document?").
			Description(name).
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
	}

	if err := cmd.app.Client.DeleteFile(ctx, name); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Deleted %s\n", name)
	return nil
}
