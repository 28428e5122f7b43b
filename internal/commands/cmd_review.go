package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/creativedesign-blip/document-review/internal/docreview"
	"github.com/creativedesign-blip/document-review/internal/tui"
)

type ReviewCmd struct {
	flags *Flags
	app   *docreview.App
}

// NewReviewCmd creates a new review command.
func NewReviewCmd(flags *Flags, app *docreview.App) *ReviewCmd {
	return &ReviewCmd{flags: flags, app: app}
}

// Register adds the review command to the application.
func (cmd *ReviewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "review",
		Usage:     "Open the interactive triage view for a document",
		UsageText: "docrev review [--doc DOC]",
		Description: `Opens a card-based TUI listing a document's issues. Each card supports
accept, dismiss, edit-and-execute via the approval handshake, and
dismissal feedback.`,
		Action: cmd.Run,
	})

	return app
}

// Run launches the triage TUI. It also backs the root command's default
// action.
func (cmd *ReviewCmd) Run(ctx context.Context, c *cli.Command) error {
	docID, err := resolveDoc(cmd.flags, cmd.app)
	if err != nil {
		return err
	}
	return tui.Run(ctx, cmd.app, docID)
}
