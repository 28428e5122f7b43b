// Package api implements the document-review HTTP client. One call is one
// request/response exchange; retry policy for mutating operations belongs to
// the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/creativedesign-blip/document-review/internal/core/issue"
)

// DefaultTimeout bounds a single exchange when the config does not set one.
const DefaultTimeout = 30 * time.Second

// Client performs request/response exchanges against a document-review
// server. It is stateless per call and safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New creates a client for the given server base URL, e.g.
// "http://localhost:8080". A zero timeout means DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("cmp", "api").Logger(),
	}
}

// do performs one JSON exchange. A nil body sends no payload; a nil out
// discards the response body. Non-2xx responses are always errors.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindDecode, Op: op, Detail: "encode request body", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Detail: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug().Str("method", method).Str("path", path).Msg("request")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Detail: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Detail: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("server rejected request")
		return &Error{Kind: KindServer, Op: op, Status: resp.StatusCode, Detail: trimDetail(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Kind: KindDecode, Op: op, Detail: err.Error(), Err: err}
	}
	return nil
}

// trimDetail keeps error bodies to a single displayable line.
func trimDetail(body []byte) string {
	const max = 200
	s := string(bytes.TrimSpace(body))
	if len(s) > max {
		s = s[:max] + "..."
	}
	if s == "" {
		s = "no response body"
	}
	return s
}

func docPath(docID string, parts ...string) string {
	p := "/api/v1/docs/" + url.PathEscape(docID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// ListIssues returns all issues for a document. Network failures on this
// read-only call are retried with capped exponential backoff; server
// rejections and decode failures are not.
func (c *Client) ListIssues(ctx context.Context, docID string) ([]issue.Issue, error) {
	var issues []issue.Issue

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = 5 * time.Second

	err := backoff.Retry(func() error {
		issues = nil
		err := c.do(ctx, "list issues", http.MethodGet, docPath(docID, "issues"), nil, &issues)
		if err != nil && !IsKind(err, KindNetwork) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, err
	}

	for i := range issues {
		issues[i].Status = issue.NormalizeStatus(string(issues[i].Status))
	}
	return issues, nil
}

// AcceptIssue accepts an issue, optionally with reviewer edits, and returns
// the server's authoritative representation.
func (c *Client) AcceptIssue(ctx context.Context, docID, issueID string, overrides *issue.ModifiedFields) (issue.Issue, error) {
	var updated issue.Issue
	var body any
	if overrides != nil {
		body = overrides
	}
	err := c.do(ctx, "accept issue", http.MethodPatch, docPath(docID, "issues", issueID, "accept"), body, &updated)
	if err != nil {
		return issue.Issue{}, err
	}
	updated.Status = issue.NormalizeStatus(string(updated.Status))
	return updated, nil
}

// DismissIssue dismisses an issue and returns the server's authoritative
// representation.
func (c *Client) DismissIssue(ctx context.Context, docID, issueID string) (issue.Issue, error) {
	var updated issue.Issue
	err := c.do(ctx, "dismiss issue", http.MethodPatch, docPath(docID, "issues", issueID, "dismiss"), nil, &updated)
	if err != nil {
		return issue.Issue{}, err
	}
	updated.Status = issue.NormalizeStatus(string(updated.Status))
	return updated, nil
}

// SubmitFeedback attaches dismissal feedback to an issue. The response body
// is ignored.
func (c *Client) SubmitFeedback(ctx context.Context, docID, issueID string, feedback issue.DismissalFeedback) error {
	return c.do(ctx, "submit feedback", http.MethodPatch, docPath(docID, "issues", issueID, "feedback"), feedback, nil)
}

// ProposedAction is the operation a HITL backend intends to execute, pending
// human approval. Args is untyped JSON; validate before use.
type ProposedAction struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// HITLStart is the server's response to opening a HITL session.
type HITLStart struct {
	ThreadID       string         `json:"thread_id"`
	InterruptID    string         `json:"interrupt_id,omitempty"`
	ProposedAction ProposedAction `json:"proposed_action"`
}

type hitlStartRequest struct {
	Action         string                `json:"action"`
	ModifiedFields *issue.ModifiedFields `json:"modified_fields,omitempty"`
}

// HITLDecision is the resume payload: approve executes the proposed action
// unchanged, edit executes EditedAction instead.
type HITLDecision struct {
	Type         string          `json:"type"`
	EditedAction *ProposedAction `json:"edited_action,omitempty"`
}

type hitlResumeRequest struct {
	ThreadID    string       `json:"thread_id"`
	InterruptID string       `json:"interrupt_id,omitempty"`
	Decision    HITLDecision `json:"decision"`
}

// StartHITL opens an approval session for the given action on an issue.
func (c *Client) StartHITL(ctx context.Context, docID, issueID, action string, overrides *issue.ModifiedFields) (HITLStart, error) {
	var started HITLStart
	req := hitlStartRequest{Action: action, ModifiedFields: overrides}
	err := c.do(ctx, "start hitl session", http.MethodPost, docPath(docID, "issues", issueID, "hitl", "start"), req, &started)
	if err != nil {
		return HITLStart{}, err
	}
	if started.ThreadID == "" {
		return HITLStart{}, &Error{Kind: KindDecode, Op: "start hitl session", Detail: "response missing thread_id"}
	}
	return started, nil
}

// ResumeHITL resolves an open session with the reviewer's decision and
// returns the finalized issue.
func (c *Client) ResumeHITL(ctx context.Context, docID, issueID, threadID, interruptID string, decision HITLDecision) (issue.Issue, error) {
	var updated issue.Issue
	req := hitlResumeRequest{ThreadID: threadID, InterruptID: interruptID, Decision: decision}
	err := c.do(ctx, "resume hitl session", http.MethodPost, docPath(docID, "issues", issueID, "hitl", "resume"), req, &updated)
	if err != nil {
		return issue.Issue{}, err
	}
	updated.Status = issue.NormalizeStatus(string(updated.Status))
	return updated, nil
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string { return c.baseURL }
