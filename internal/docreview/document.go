package docreview

import (
	"context"
	"sync"

	"github.com/creativedesign-blip/document-review/internal/core/issue"
)

// Lister fetches the issue collection for a document.
type Lister interface {
	ListIssues(ctx context.Context, docID string) ([]issue.Issue, error)
}

// Document owns the canonical issue collection for one reviewed document.
// Issues are replaced one at a time with server-confirmed representations;
// nothing mutates an issue in place.
type Document struct {
	ID string

	mu     sync.RWMutex
	issues []issue.Issue
}

// NewDocument creates an empty document collection.
func NewDocument(id string) *Document {
	return &Document{ID: id}
}

// Load fills the collection from the server, replacing any prior contents.
func (d *Document) Load(ctx context.Context, lister Lister) error {
	issues, err := lister.ListIssues(ctx, d.ID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.issues = issues
	d.mu.Unlock()
	return nil
}

// Issues returns a copy of the collection in server order.
func (d *Document) Issues() []issue.Issue {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]issue.Issue, len(d.issues))
	copy(out, d.issues)
	return out
}

// Get returns the issue with the given id.
func (d *Document) Get(issueID string) (issue.Issue, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, iss := range d.issues {
		if iss.ID == issueID {
			return iss, true
		}
	}
	return issue.Issue{}, false
}

// Replace swaps one issue for its server-confirmed representation. It is the
// only write path into the collection. Returns false when the issue is not
// part of this document.
func (d *Document) Replace(updated issue.Issue) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.issues {
		if d.issues[i].ID == updated.ID {
			d.issues[i] = updated
			return true
		}
	}
	return false
}

// Counts returns how many issues sit in each review state.
func (d *Document) Counts() (notReviewed, accepted, dismissed int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, iss := range d.issues {
		switch issue.NormalizeStatus(string(iss.Status)) {
		case issue.StatusAccepted:
			accepted++
		case issue.StatusDismissed:
			dismissed++
		default:
			notReviewed++
		}
	}
	return notReviewed, accepted, dismissed
}
