package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/creativedesign-blip/document-review/internal/docreview"
)

type FeedbackCmd struct {
	flags *Flags
	app   *docreview.App

	// flags
	reason string
}

// NewFeedbackCmd creates a new feedback command.
func NewFeedbackCmd(flags *Flags, app *docreview.App) *FeedbackCmd {
	return &FeedbackCmd{flags: flags, app: app}
}

// Register adds the feedback command to the application.
func (cmd *FeedbackCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "feedback",
		Usage:     "Attach dismissal feedback to an already-dismissed issue",
		UsageText: "docrev feedback [--doc DOC] ISSUE_ID --reason TEXT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "reason",
				Usage:       "why the finding was wrong and how it should improve",
				Required:    true,
				Destination: &cmd.reason,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *FeedbackCmd) run(ctx context.Context, c *cli.Command) error {
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

	if err := card.SubmitFeedback(ctx, cmd.reason); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "Feedback submitted for issue %s\n", issueID)
	return nil
}
