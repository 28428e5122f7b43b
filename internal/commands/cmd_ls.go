package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/creativedesign-blip/document-review/internal/core/issue"
	"github.com/creativedesign-blip/document-review/internal/core/risk"
	"github.com/creativedesign-blip/document-review/internal/docreview"
	"github.com/creativedesign-blip/document-review/pkg/iojson"
	"github.com/creativedesign-blip/document-review/pkg/strutil"
)

type LsCmd struct {
	flags *Flags
	app   *docreview.App

	// flags
	jsonOutput   bool
	statusFilter string
	typeFilter   string
}

// NewLsCmd creates a new ls command.
func NewLsCmd(flags *Flags, app *docreview.App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application.
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List review issues for a document",
		UsageText: "docrev ls [--doc DOC] [--status STATUS] [--type TYPE] [--json]",
		Description: `Displays a table of issues with their status, type, risk, and flagged text.

Use --json for machine-friendly output with one issue per line.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
			&cli.StringFlag{
				Name:        "status",
				Usage:       "filter by status (not_reviewed, accepted, dismissed)",
				Destination: &cmd.statusFilter,
			},
			&cli.StringFlag{
				Name:        "type",
				Usage:       "filter by issue type",
				Destination: &cmd.typeFilter,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	docID, err := resolveDoc(cmd.flags, cmd.app)
	if err != nil {
		return err
	}

	issues, err := cmd.app.Client.ListIssues(ctx, docID)
	if err != nil {
		return fmt.Errorf("list issues: %w", err)
	}

	filtered := issues[:0]
	for _, iss := range issues {
		if cmd.statusFilter != "" && issue.NormalizeStatus(cmd.statusFilter) != iss.Status {
			continue
		}
		if cmd.typeFilter != "" && cmd.typeFilter != iss.Type {
			continue
		}
		filtered = append(filtered, iss)
	}

	if len(filtered) == 0 {
		if !cmd.jsonOutput {
			fmt.Fprintf(os.Stderr, "No issues found for %s\n", docID)
		}
		return nil
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, iss := range filtered {
			if err := iojson.WriteLine(out, iss); err != nil {
				return fmt.Errorf("encode issue: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tTYPE\tRISK\tTEXT")
	for _, iss := range filtered {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			iss.ID,
			iss.Status,
			risk.TypeLabel(iss.Type),
			risk.LevelFor(iss.Type, iss.RiskLevel),
			strutil.Truncate(iss.Text, 60),
		)
	}
	return w.Flush()
}
