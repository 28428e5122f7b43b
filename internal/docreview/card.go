// Package docreview composes the review state machine, the approval
// coordinator, and the document's issue collection.
package docreview

import (
	"context"

	"github.com/creativedesign-blip/document-review/internal/core/hitl"
	"github.com/creativedesign-blip/document-review/internal/core/issue"
	"github.com/creativedesign-blip/document-review/internal/core/triage"
)

// APIClient is the remote surface a card needs: issue mutations plus the
// approval handshake. *api.Client satisfies it.
type APIClient interface {
	triage.Client
	hitl.Client
}

// Card binds one issue's review state machine and, when the reviewer opts to
// edit-and-execute, its approval session. The card is the only writer of the
// issue's canonical copy in the document collection.
type Card struct {
	doc     *Document
	client  APIClient
	review  *triage.Review
	session *hitl.Session
}

// NewCard creates a controller for one issue of the document.
func NewCard(client APIClient, doc *Document, iss issue.Issue) *Card {
	return &Card{
		doc:    doc,
		client: client,
		review: triage.New(client, doc.ID, iss),
	}
}

// Cards builds one controller per issue currently in the document.
func Cards(client APIClient, doc *Document) []*Card {
	issues := doc.Issues()
	cards := make([]*Card, 0, len(issues))
	for _, iss := range issues {
		cards = append(cards, NewCard(client, doc, iss))
	}
	return cards
}

// Review exposes the underlying state machine for reads (status, errors,
// feedback prompt) and draft edits.
func (c *Card) Review() *triage.Review { return c.review }

// Issue returns the card's current issue.
func (c *Card) Issue() issue.Issue { return c.review.Issue() }

// Accept runs the accept operation and publishes the confirmed issue into
// the document collection.
func (c *Card) Accept(ctx context.Context) error {
	updated, err := c.review.Accept(ctx)
	if err != nil {
		return err
	}
	c.doc.Replace(updated)
	return nil
}

// Dismiss runs the dismiss operation and publishes the confirmed issue into
// the document collection.
func (c *Card) Dismiss(ctx context.Context) error {
	updated, err := c.review.Dismiss(ctx)
	if err != nil {
		return err
	}
	c.doc.Replace(updated)
	return nil
}

// SubmitFeedback sends dismissal feedback for this issue.
func (c *Card) SubmitFeedback(ctx context.Context, reason string) error {
	return c.review.SubmitFeedback(ctx, reason)
}

// Session returns the approval coordinator, creating it on first use.
func (c *Card) Session() *hitl.Session {
	if c.session == nil {
		c.session = hitl.NewSession(c.client, c.doc.ID, c.review.Issue().ID)
	}
	return c.session
}

// StartEdit opens the edit-and-execute approval session, carrying any
// pending draft edits from the review state machine.
func (c *Card) StartEdit(ctx context.Context) error {
	if c.review.Issue().Reviewed() {
		return triage.ErrAlreadyReviewed
	}
	return c.Session().Start(ctx, c.review.Overrides())
}

// DecideEdit resolves the open approval session. A successful decision is
// equivalent to a successful accept: the finalized issue replaces the local
// copy and is published into the document collection.
func (c *Card) DecideEdit(ctx context.Context, kind, argsText string) error {
	finalized, err := c.Session().Decide(ctx, kind, argsText)
	if err != nil {
		return err
	}
	c.review.ApplyResolved(finalized)
	c.doc.Replace(finalized)
	return nil
}

// SessionErr returns the approval session's display error, or empty when no
// session was ever opened.
func (c *Card) SessionErr() string {
	if c.session == nil {
		return ""
	}
	return c.session.Err()
}

// CancelEdit discards the approval session locally.
func (c *Card) CancelEdit() {
	if c.session != nil {
		c.session.Cancel()
	}
}
