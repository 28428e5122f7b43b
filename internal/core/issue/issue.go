// Package issue defines the review issue data model shared by the CLI,
// TUI, and API client.
package issue

// Status is the review lifecycle state of an issue.
type Status string

// Issue review states. An issue starts not_reviewed and moves exactly once
// to accepted or dismissed; there is no path back.
const (
	StatusNotReviewed Status = "not_reviewed"
	StatusAccepted    Status = "accepted"
	StatusDismissed   Status = "dismissed"
)

// NormalizeStatus maps legacy and empty wire values onto the canonical
// status set. Older servers emit "not reviewed" with a space.
func NormalizeStatus(s string) Status {
	switch s {
	case "", "not reviewed", string(StatusNotReviewed):
		return StatusNotReviewed
	case string(StatusAccepted):
		return StatusAccepted
	case string(StatusDismissed):
		return StatusDismissed
	default:
		return Status(s)
	}
}

// ModifiedFields holds reviewer edits applied before accepting an issue.
// Only fields the reviewer actually changed are present; empty values are
// never sent on the wire.
type ModifiedFields struct {
	Explanation  string `json:"explanation,omitempty"`
	SuggestedFix string `json:"suggested_fix,omitempty"`
}

// NewModifiedFields returns the overrides for the given edits, or nil when
// neither field was changed.
func NewModifiedFields(explanation, suggestedFix string) *ModifiedFields {
	if explanation == "" && suggestedFix == "" {
		return nil
	}
	return &ModifiedFields{Explanation: explanation, SuggestedFix: suggestedFix}
}

// DismissalFeedback is free-text feedback attached after a dismissal. It is
// transient client-side state until submitted.
type DismissalFeedback struct {
	Reason string `json:"reason"`
}

// Issue is one machine-generated finding within a document.
type Issue struct {
	ID           string          `json:"id"`
	DocID        string          `json:"doc_id,omitempty"`
	Type         string          `json:"type"`
	Text         string          `json:"text"`
	Explanation  string          `json:"explanation"`
	SuggestedFix string          `json:"suggested_fix"`
	Status       Status          `json:"status"`
	Location     string          `json:"location,omitempty"`
	RiskLevel    string          `json:"risk_level,omitempty"`
	Modified     *ModifiedFields `json:"modified_fields,omitempty"`

	// Audit fields, set server-side and carried opaquely.
	ReviewInitiatedBy string             `json:"review_initiated_by,omitempty"`
	ReviewInitiatedAt string             `json:"review_initiated_at_UTC,omitempty"`
	ResolvedBy        string             `json:"resolved_by,omitempty"`
	ResolvedAt        string             `json:"resolved_at_UTC,omitempty"`
	Feedback          *DismissalFeedback `json:"dismissal_feedback,omitempty"`
}

// Reviewed returns true once the issue has reached a terminal review state.
func (i Issue) Reviewed() bool {
	return NormalizeStatus(string(i.Status)) != StatusNotReviewed
}

// EffectiveExplanation returns the reviewer-edited explanation when present,
// otherwise the original agent-authored text.
func (i Issue) EffectiveExplanation() string {
	if i.Modified != nil && i.Modified.Explanation != "" {
		return i.Modified.Explanation
	}
	return i.Explanation
}

// EffectiveSuggestedFix returns the reviewer-edited fix when present,
// otherwise the original agent-authored text.
func (i Issue) EffectiveSuggestedFix() string {
	if i.Modified != nil && i.Modified.SuggestedFix != "" {
		return i.Modified.SuggestedFix
	}
	return i.SuggestedFix
}
