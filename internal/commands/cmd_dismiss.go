package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/creativedesign-blip/document-review/internal/docreview"
	"github.com/creativedesign-blip/document-review/pkg/iojson"
)

type DismissCmd struct {
	flags *Flags
	app   *docreview.App

	// flags
	reason     string
	noFeedback bool
	jsonOutput bool
}

// NewDismissCmd creates a new dismiss command.
func NewDismissCmd(flags *Flags, app *docreview.App) *DismissCmd {
	return &DismissCmd{flags: flags, app: app}
}

// Register adds the dismiss command to the application.
func (cmd *DismissCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "dismiss",
		Usage:     "Dismiss an issue, optionally leaving feedback",
		UsageText: "docrev dismiss [--doc DOC] ISSUE_ID [--reason TEXT] [--no-feedback]",
		Description: `Dismisses a not-reviewed issue. After a successful dismissal you are
offered a one-time feedback prompt explaining why the finding was wrong;
--reason submits that feedback directly and --no-feedback skips the prompt.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "reason",
				Usage:       "dismissal feedback to submit after dismissing",
				Destination: &cmd.reason,
			},
			&cli.BoolFlag{
				Name:        "no-feedback",
				Usage:       "skip the feedback prompt",
				Destination: &cmd.noFeedback,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the updated issue as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *DismissCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one ISSUE_ID argument")
	}
	issueID := c.Args().First()

	docID, err := resolveDoc(cmd.flags, cmd.app)
	if err != nil {
		return err
	}

	card, err := findCard(ctx, cmd.app, docID, issueID)
	if err != nil {
		return err
	}

	if err := card.Dismiss(ctx); err != nil {
		return err
	}

	reason := cmd.reason
	if reason == "" && !cmd.noFeedback && card.Review().FeedbackPromptOpen() && term.IsTerminal(int(os.Stdin.Fd())) {
		if err := huh.NewForm(huh.NewGroup(
			huh.NewText().
				Title("Help us improve (optional)").
				Description("Why was this finding wrong, and how should it improve? Leave empty to skip.").
				Value(&reason),
		)).Run(); err != nil {
			return err
		}
	}

	if reason != "" {
		if err := card.SubmitFeedback(ctx, reason); err != nil {
			return fmt.Errorf("submit feedback: %w", err)
		}
	} else {
		card.Review().CloseFeedbackPrompt()
	}

	updated := card.Issue()
	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, updated)
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Issue %s %s\n", updated.ID, updated.Status)
	return nil
}
