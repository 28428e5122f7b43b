package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/creativedesign-blip/document-review/internal/core/hitl"
	"github.com/creativedesign-blip/document-review/internal/core/issue"
	"github.com/creativedesign-blip/document-review/internal/docreview"
	"github.com/creativedesign-blip/document-review/pkg/iojson"
)

type AcceptCmd struct {
	flags *Flags
	app   *docreview.App

	// flags
	explanation string
	fix         string
	useHITL     bool
	jsonOutput  bool

	overridesFile iojson.FileReader[issue.ModifiedFields]
}

// NewAcceptCmd creates a new accept command.
func NewAcceptCmd(flags *Flags, app *docreview.App) *AcceptCmd {
	return &AcceptCmd{flags: flags, app: app}
}

// Register adds the accept command to the application.
func (cmd *AcceptCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "accept",
		Usage:     "Accept an issue, optionally with edited remediation text",
		UsageText: "docrev accept [--doc DOC] ISSUE_ID [--explanation TEXT] [--fix TEXT] [--hitl]",
		Description: `Accepts a not-reviewed issue. Edited explanation or suggested-fix text is
sent along and recorded server-side as modified fields.

With --hitl, the accept runs through the approval handshake: the server
proposes the exact action it will execute, and you approve, edit, or cancel
before anything is applied. Overrides may also be piped as JSON with -f.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "explanation",
				Usage:       "replacement explanation text",
				Destination: &cmd.explanation,
			},
			&cli.StringFlag{
				Name:        "fix",
				Usage:       "replacement suggested-fix text",
				Destination: &cmd.fix,
			},
			&cli.BoolFlag{
				Name:        "hitl",
				Usage:       "review the proposed action before it executes",
				Destination: &cmd.useHITL,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the updated issue as JSON",
				Destination: &cmd.jsonOutput,
			},
			cmd.overridesFile.Flag(),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *AcceptCmd) run(ctx context.Context, c *cli.Command) error {
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

	explanation, fix := cmd.explanation, cmd.fix
	if cmd.overridesFile.Set() {
		overrides, err := cmd.overridesFile.Read()
		if err != nil {
			return fmt.Errorf("read overrides: %w", err)
		}
		explanation, fix = overrides.Explanation, overrides.SuggestedFix
	}
	card.Review().SetDraft(explanation, fix)

	if cmd.useHITL {
		if err := cmd.runHandshake(ctx, c.Root().Writer, card); err != nil {
			return err
		}
	} else if err := card.Accept(ctx); err != nil {
		return err
	}

	updated := card.Issue()
	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, updated)
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Issue %s %s\n", updated.ID, updated.Status)
	return nil
}

// runHandshake drives the interactive approve/edit/cancel loop until the
// session resolves or the reviewer gives up.
func (cmd *AcceptCmd) runHandshake(ctx context.Context, out io.Writer, card *docreview.Card) error {
	if err := card.StartEdit(ctx); err != nil {
		return fmt.Errorf("start approval session: %w", err)
	}

	session := card.Session()
	argsText := session.ArgsJSON()

	for {
		var choice string
		err := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Proposed action: %s", session.ActionName())).
				Description(argsText).
				Options(
					huh.NewOption("Approve and execute", hitl.DecisionApprove),
					huh.NewOption("Edit arguments, then execute", hitl.DecisionEdit),
					huh.NewOption("Cancel", "cancel"),
				).
				Value(&choice),
		)).Run()
		if err != nil {
			card.CancelEdit()
			return err
		}

		if choice == "cancel" {
			card.CancelEdit()
			return fmt.Errorf("approval session canceled")
		}

		if choice == hitl.DecisionEdit {
			if err := huh.NewForm(huh.NewGroup(
				huh.NewText().
					Title("Action arguments (JSON)").
					Value(&argsText),
			)).Run(); err != nil {
				card.CancelEdit()
				return err
			}
		}

		err = card.DecideEdit(ctx, choice, argsText)
		if err == nil {
			return nil
		}
		if errors.Is(err, hitl.ErrInvalidArgs) {
			_, _ = fmt.Fprintln(out, "Arguments are not valid JSON; please fix them.")
			continue
		}
		// Server failure: the session stays open with the original
		// proposal, so the reviewer can retry.
		_, _ = fmt.Fprintf(out, "Resume failed: %s\n", session.Err())
		argsText = session.ArgsJSON()
	}
}

// findCard loads the document and returns the controller for one issue.
func findCard(ctx context.Context, app *docreview.App, docID, issueID string) (*docreview.Card, error) {
	doc, cards, err := app.OpenDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", docID, err)
	}
	if _, ok := doc.Get(issueID); !ok {
		return nil, fmt.Errorf("issue %s not found in document %s", issueID, docID)
	}
	for _, card := range cards {
		if card.Issue().ID == issueID {
			return card, nil
		}
	}
	return nil, fmt.Errorf("issue %s not found in document %s", issueID, docID)
}
