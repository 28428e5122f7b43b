// Package hitl coordinates the two-phase human-in-the-loop approval
// handshake for an issue action: start a session, hold the proposed action
// for inspection, and resolve it with the reviewer's decision.
package hitl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/creativedesign-blip/document-review/internal/api"
	"github.com/creativedesign-blip/document-review/internal/core/issue"
)

// State is the lifecycle phase of an approval session.
type State int

const (
	// StateIdle means no open session.
	StateIdle State = iota
	// StateStarting means a start request is in flight.
	StateStarting
	// StateAwaitingDecision means a proposal is held pending the reviewer.
	StateAwaitingDecision
	// StateResolving means a resume request is in flight.
	StateResolving
	// StateClosed means the last decision succeeded and the finalized issue
	// has been handed to the caller.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateAwaitingDecision:
		return "awaiting_decision"
	case StateResolving:
		return "resolving"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned while a start or resume request is in flight.
	ErrBusy = errors.New("hitl request already in flight")
	// ErrSequence marks a call made out of its required state, e.g. deciding
	// without a started session. Detected locally; no request is sent.
	ErrSequence = errors.New("hitl session is not awaiting a decision")
	// ErrInvalidArgs marks an edited argument payload that is not valid JSON.
	ErrInvalidArgs = errors.New("edited arguments are not valid JSON")
	// ErrCanceled is returned when an in-flight request resolved after the
	// session was canceled; its result was discarded.
	ErrCanceled = errors.New("hitl session canceled")
)

// Decision kinds understood by the resume endpoint. Cancel is local-only and
// handled by Session.Cancel.
const (
	DecisionApprove = "approve"
	DecisionEdit    = "edit"
)

// Client is the remote surface the coordinator depends on.
type Client interface {
	StartHITL(ctx context.Context, docID, issueID, action string, overrides *issue.ModifiedFields) (api.HITLStart, error)
	ResumeHITL(ctx context.Context, docID, issueID, threadID, interruptID string, decision api.HITLDecision) (issue.Issue, error)
}

// Session manages one approval handshake for one issue. It lives only in
// memory; cancellation never contacts the server.
type Session struct {
	mu      sync.Mutex
	client  Client
	docID   string
	issueID string

	state       State
	threadID    string
	interruptID string
	actionName  string
	argsJSON    string // pretty-printed proposed args, editable by the reviewer

	// gen guards against stale in-flight results after Cancel or supersede.
	gen int

	errMsg string
	log    zerolog.Logger
}

// NewSession creates an idle approval coordinator for the given issue.
func NewSession(client Client, docID, issueID string) *Session {
	return &Session{
		client:  client,
		docID:   docID,
		issueID: issueID,
		state:   StateIdle,
		log:     log.With().Str("cmp", "hitl").Str("issue", issueID).Logger(),
	}
}

// Start opens an approval session for accepting the issue, carrying any
// pending reviewer edits. A session already awaiting a decision is
// superseded; a session with a request in flight returns ErrBusy. On failure
// the session returns to idle and is not considered open.
func (s *Session) Start(ctx context.Context, overrides *issue.ModifiedFields) error {
	s.mu.Lock()
	if s.state == StateStarting || s.state == StateResolving {
		s.mu.Unlock()
		return ErrBusy
	}
	s.clearLocked()
	s.state = StateStarting
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	started, err := s.client.StartHITL(ctx, s.docID, s.issueID, "accept", overrides)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// Canceled or superseded while in flight; discard the result.
		return ErrCanceled
	}
	if err != nil {
		s.state = StateIdle
		s.errMsg = api.Message(err)
		s.log.Warn().Err(err).Msg("hitl start failed")
		return err
	}

	s.threadID = started.ThreadID
	s.interruptID = started.InterruptID
	s.actionName = started.ProposedAction.Name
	s.argsJSON = prettyArgs(started.ProposedAction.Args)
	s.errMsg = ""
	s.state = StateAwaitingDecision
	s.log.Info().Str("thread_id", s.threadID).Msg("hitl session open")
	return nil
}

// Decide resolves the open session. kind is DecisionApprove or DecisionEdit;
// for edits, argsText must hold the replacement argument JSON. A parse
// failure is local validation and never reaches the server. On resume
// failure the session stays awaiting a decision with the previously fetched
// proposal intact, so the reviewer can retry or re-edit.
func (s *Session) Decide(ctx context.Context, kind, argsText string) (issue.Issue, error) {
	s.mu.Lock()
	if s.state == StateStarting || s.state == StateResolving {
		s.mu.Unlock()
		return issue.Issue{}, ErrBusy
	}
	if s.state != StateAwaitingDecision || s.threadID == "" {
		s.mu.Unlock()
		return issue.Issue{}, ErrSequence
	}

	decision := api.HITLDecision{Type: kind}
	if kind == DecisionEdit {
		var args json.RawMessage
		if err := json.Unmarshal([]byte(argsText), &args); err != nil {
			s.errMsg = fmt.Sprintf("%s: %s", ErrInvalidArgs.Error(), err.Error())
			s.mu.Unlock()
			return issue.Issue{}, fmt.Errorf("%w: %s", ErrInvalidArgs, err)
		}
		decision.EditedAction = &api.ProposedAction{Name: s.actionName, Args: args}
	}

	s.state = StateResolving
	s.gen++
	gen := s.gen
	threadID, interruptID := s.threadID, s.interruptID
	s.mu.Unlock()

	finalized, err := s.client.ResumeHITL(ctx, s.docID, s.issueID, threadID, interruptID, decision)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return issue.Issue{}, ErrCanceled
	}
	if err != nil {
		// Keep the previously fetched proposal, not the failed edit, so a
		// bad payload is not resubmitted by default.
		s.state = StateAwaitingDecision
		s.errMsg = api.Message(err)
		s.log.Warn().Err(err).Msg("hitl resume failed")
		return issue.Issue{}, err
	}

	s.clearLocked()
	s.state = StateClosed
	s.log.Info().Str("status", string(finalized.Status)).Msg("hitl session resolved")
	return finalized, nil
}

// Cancel discards the session locally and returns to idle. No request is
// sent; an in-flight start or resume that lands afterwards is ignored.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.gen++
	s.clearLocked()
	s.state = StateIdle
	s.mu.Unlock()
}

// clearLocked wipes all per-session fields. Callers hold s.mu.
func (s *Session) clearLocked() {
	s.threadID = ""
	s.interruptID = ""
	s.actionName = ""
	s.argsJSON = ""
	s.errMsg = ""
}

func prettyArgs(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ThreadID returns the backend conversation identifier, empty unless a
// session is open.
func (s *Session) ThreadID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadID
}

// InterruptID returns the suspension point identifier, which may be empty
// even for an open session.
func (s *Session) InterruptID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interruptID
}

// ActionName returns the proposed action's name.
func (s *Session) ActionName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actionName
}

// ArgsJSON returns the proposed action's arguments as editable, indented
// JSON text.
func (s *Session) ArgsJSON() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.argsJSON
}

// Err returns the display-ready message of the last failure, empty when the
// last operation succeeded.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// ClearErr resets the stored error message.
func (s *Session) ClearErr() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}
