package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/creativedesign-blip/document-review/internal/api"
	"github.com/creativedesign-blip/document-review/internal/commands"
	"github.com/creativedesign-blip/document-review/internal/core/config"
	"github.com/creativedesign-blip/document-review/internal/core/styles"
	"github.com/creativedesign-blip/document-review/internal/docreview"
	"github.com/creativedesign-blip/document-review/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		reviewApp = &docreview.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "docrev",
		Usage:     "Triage machine-found issues in reviewed documents",
		UsageText: "docrev [global options] command [command options]",
		Description: `docrev is a terminal client for a document-review service. Machine-found
issues (grammar, risky wording, custom rules) are listed per document;
each one can be accepted as-is, accepted with edited remediation text,
dismissed with optional feedback, or pushed through the human-in-the-loop
approval handshake before anything executes.

Run 'docrev' with no arguments to open the interactive triage view.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("DOCREV_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/docrev.log)",
				Sources:     cli.EnvVars("DOCREV_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("DOCREV_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("DOCREV_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "server",
				Usage:       "review server base URL (overrides config)",
				Sources:     cli.EnvVars("DOCREV_SERVER"),
				Destination: &flags.ServerURL,
			},
			&cli.StringFlag{
				Name:        "doc",
				Usage:       "document to operate on",
				Sources:     cli.EnvVars("DOCREV_DOC"),
				Destination: &flags.DocID,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/docrev.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "docrev.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.ServerURL != "" {
				cfg.Server.URL = flags.ServerURL
				if err := cfg.Validate(); err != nil {
					return ctx, fmt.Errorf("invalid config: %w", err)
				}
			}

			// Apply configured theme (validation ensures name is valid)
			if palette, ok := styles.GetPalette(cfg.TUI.Theme); ok {
				styles.SetTheme(palette)
			}

			client := api.New(cfg.Server.URL, cfg.Server.Timeout())

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*reviewApp = *docreview.NewApp(client, cfg, version)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	reviewCmd := commands.NewReviewCmd(flags, reviewApp)

	app = commands.NewLsCmd(flags, reviewApp).Register(app)
	app = commands.NewAcceptCmd(flags, reviewApp).Register(app)
	app = commands.NewDismissCmd(flags, reviewApp).Register(app)
	app = commands.NewFeedbackCmd(flags, reviewApp).Register(app)
	app = commands.NewFilesCmd(flags, reviewApp).Register(app)
	app = commands.NewConfigValidateCmd(flags, reviewApp).Register(app)
	app = reviewCmd.Register(app)

	// Open the triage view when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'docrev --help' for usage", c.Args().First())
		}
		return reviewCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
