// Package triage implements the review lifecycle for a single issue:
// accept, dismiss, and dismissal feedback, with an in-flight guard so two
// mutating calls for the same issue never race.
package triage

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/creativedesign-blip/document-review/internal/api"
	"github.com/creativedesign-blip/document-review/internal/core/issue"
)

// Sentinel errors for review operations. These indicate a call made in the
// wrong state and never reach the network.
var (
	ErrBusy              = errors.New("another operation is in flight for this issue")
	ErrAlreadyReviewed   = errors.New("issue has already been reviewed")
	ErrFeedbackClosed    = errors.New("feedback is only accepted after a dismissal")
	ErrFeedbackSubmitted = errors.New("feedback has already been submitted")
	ErrEmptyFeedback     = errors.New("feedback reason cannot be empty")
)

// Client is the remote surface the state machine depends on.
type Client interface {
	AcceptIssue(ctx context.Context, docID, issueID string, overrides *issue.ModifiedFields) (issue.Issue, error)
	DismissIssue(ctx context.Context, docID, issueID string) (issue.Issue, error)
	SubmitFeedback(ctx context.Context, docID, issueID string, feedback issue.DismissalFeedback) error
}

// Review owns one issue's review state. The local copy is replaced wholesale
// by server-confirmed representations; draft edits are scratch state that is
// discarded once a mutation succeeds.
type Review struct {
	mu     sync.Mutex
	client Client
	docID  string
	cur    issue.Issue

	busy              bool
	promptOpen        bool
	feedbackSubmitted bool

	draftExplanation string
	draftFix         string

	errMsg string
	log    zerolog.Logger
}

// New creates a review state machine seeded with the server-supplied issue.
func New(client Client, docID string, iss issue.Issue) *Review {
	iss.Status = issue.NormalizeStatus(string(iss.Status))
	return &Review{
		client: client,
		docID:  docID,
		cur:    iss,
		log:    log.With().Str("cmp", "triage").Str("issue", iss.ID).Logger(),
	}
}

// begin acquires the in-flight guard after checking the precondition.
// Callers must pair it with end().
func (r *Review) begin(check func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy {
		return ErrBusy
	}
	if err := check(); err != nil {
		return err
	}
	r.busy = true
	return nil
}

func (r *Review) end() {
	r.mu.Lock()
	r.busy = false
	r.mu.Unlock()
}

// SetDraft records reviewer edits to the explanation and suggested fix.
// Empty strings mean "unchanged"; drafts are held locally until an accept
// succeeds.
func (r *Review) SetDraft(explanation, suggestedFix string) {
	r.mu.Lock()
	r.draftExplanation = explanation
	r.draftFix = suggestedFix
	r.mu.Unlock()
}

// Overrides returns the pending edits as a wire payload, or nil when the
// reviewer changed nothing.
func (r *Review) Overrides() *issue.ModifiedFields {
	r.mu.Lock()
	defer r.mu.Unlock()
	return issue.NewModifiedFields(r.draftExplanation, r.draftFix)
}

// Accept accepts the issue, sending any pending draft edits. Valid only from
// not_reviewed; a call while another operation is in flight returns ErrBusy
// without issuing a request. On success the server's representation replaces
// the local issue and drafts are discarded.
func (r *Review) Accept(ctx context.Context) (issue.Issue, error) {
	if err := r.begin(r.checkNotReviewed); err != nil {
		return r.Issue(), err
	}
	defer r.end()

	updated, err := r.client.AcceptIssue(ctx, r.docID, r.Issue().ID, r.Overrides())
	if err != nil {
		r.fail("accept", err)
		return r.Issue(), err
	}

	r.mu.Lock()
	r.applyLocked(updated)
	r.mu.Unlock()
	r.log.Info().Str("status", string(updated.Status)).Msg("issue accepted")
	return updated, nil
}

// Dismiss dismisses the issue. Valid only from not_reviewed. On success the
// feedback prompt opens exactly once for this dismissal.
func (r *Review) Dismiss(ctx context.Context) (issue.Issue, error) {
	if err := r.begin(r.checkNotReviewed); err != nil {
		return r.Issue(), err
	}
	defer r.end()

	updated, err := r.client.DismissIssue(ctx, r.docID, r.Issue().ID)
	if err != nil {
		r.fail("dismiss", err)
		return r.Issue(), err
	}

	r.mu.Lock()
	r.applyLocked(updated)
	r.promptOpen = true
	r.mu.Unlock()
	r.log.Info().Msg("issue dismissed")
	return updated, nil
}

// SubmitFeedback sends dismissal feedback. Valid only after a dismissal and
// at most once; a failed submit leaves the prompt open for retry.
func (r *Review) SubmitFeedback(ctx context.Context, reason string) error {
	err := r.begin(func() error {
		if issue.NormalizeStatus(string(r.cur.Status)) != issue.StatusDismissed {
			return ErrFeedbackClosed
		}
		if r.feedbackSubmitted || r.cur.Feedback != nil {
			return ErrFeedbackSubmitted
		}
		if reason == "" {
			return ErrEmptyFeedback
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer r.end()

	if err := r.client.SubmitFeedback(ctx, r.docID, r.Issue().ID, issue.DismissalFeedback{Reason: reason}); err != nil {
		r.fail("feedback", err)
		return err
	}

	r.mu.Lock()
	r.feedbackSubmitted = true
	r.promptOpen = false
	r.errMsg = ""
	r.mu.Unlock()
	r.log.Info().Msg("dismissal feedback submitted")
	return nil
}

// ApplyResolved installs a server-confirmed issue produced outside the
// accept/dismiss paths, e.g. by a resolved approval session. Scratch state
// is discarded, matching a successful accept.
func (r *Review) ApplyResolved(updated issue.Issue) {
	r.mu.Lock()
	r.applyLocked(updated)
	r.mu.Unlock()
}

// applyLocked replaces the local issue with a server-confirmed value.
// Callers hold r.mu.
func (r *Review) applyLocked(updated issue.Issue) {
	updated.Status = issue.NormalizeStatus(string(updated.Status))
	r.cur = updated
	r.draftExplanation = ""
	r.draftFix = ""
	r.errMsg = ""
}

func (r *Review) checkNotReviewed() error {
	if issue.NormalizeStatus(string(r.cur.Status)) != issue.StatusNotReviewed {
		return ErrAlreadyReviewed
	}
	return nil
}

func (r *Review) fail(op string, err error) {
	r.mu.Lock()
	r.errMsg = api.Message(err)
	r.mu.Unlock()
	r.log.Warn().Err(err).Str("op", op).Msg("operation failed")
}

// Issue returns the current local copy of the issue.
func (r *Review) Issue() issue.Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur
}

// Busy reports whether a mutating call is in flight.
func (r *Review) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// FeedbackPromptOpen reports whether the one-shot feedback prompt should be
// shown.
func (r *Review) FeedbackPromptOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.promptOpen
}

// CloseFeedbackPrompt dismisses the feedback prompt without submitting.
// The prompt does not reopen.
func (r *Review) CloseFeedbackPrompt() {
	r.mu.Lock()
	r.promptOpen = false
	r.mu.Unlock()
}

// FeedbackSubmitted reports whether dismissal feedback has been sent.
func (r *Review) FeedbackSubmitted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.feedbackSubmitted
}

// Err returns the display-ready message of the last failed operation, empty
// when the last operation succeeded.
func (r *Review) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errMsg
}

// ClearErr resets the stored error message.
func (r *Review) ClearErr() {
	r.mu.Lock()
	r.errMsg = ""
	r.mu.Unlock()
}
