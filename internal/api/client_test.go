package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creativedesign-blip/document-review/internal/core/issue"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 0)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestListIssues(t *testing.T) {
	t.Run("normalizes legacy statuses", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/v1/docs/doc-1/issues", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
			writeJSON(t, w, []issue.Issue{
				{ID: "1", Status: "not reviewed"},
				{ID: "2", Status: ""},
				{ID: "3", Status: "accepted"},
			})
		})

		issues, err := c.ListIssues(context.Background(), "doc-1")
		require.NoError(t, err)
		require.Len(t, issues, 3)
		assert.Equal(t, issue.StatusNotReviewed, issues[0].Status)
		assert.Equal(t, issue.StatusNotReviewed, issues[1].Status)
		assert.Equal(t, issue.StatusAccepted, issues[2].Status)
	})

	t.Run("server rejection is not retried", func(t *testing.T) {
		var calls atomic.Int64
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "document not found", http.StatusNotFound)
		})

		_, err := c.ListIssues(context.Background(), "doc-1")
		require.Error(t, err)
		assert.True(t, IsKind(err, KindServer))
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("retries transient network failures", func(t *testing.T) {
		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				// Kill the connection so the client sees a transport error.
				hj, ok := w.(http.Hijacker)
				require.True(t, ok)
				conn, _, err := hj.Hijack()
				require.NoError(t, err)
				conn.Close()
				return
			}
			writeJSON(t, w, []issue.Issue{{ID: "1", Status: "not_reviewed"}})
		}))
		t.Cleanup(srv.Close)

		issues, err := New(srv.URL, 0).ListIssues(context.Background(), "doc-1")
		require.NoError(t, err)
		assert.Len(t, issues, 1)
		assert.GreaterOrEqual(t, calls.Load(), int64(2))
	})

	t.Run("unreachable server is a network error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New("http://127.0.0.1:1", 0).ListIssues(ctx, "doc-1")
		require.Error(t, err)
	})
}

func TestAcceptIssue(t *testing.T) {
	t.Run("without overrides sends no body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "/api/v1/docs/doc-1/issues/7/accept", r.URL.Path)
			assert.Empty(t, r.Header.Get("Content-Type"))
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Empty(t, body)
			writeJSON(t, w, issue.Issue{ID: "7", Status: "accepted"})
		})

		updated, err := c.AcceptIssue(context.Background(), "doc-1", "7", nil)
		require.NoError(t, err)
		assert.Equal(t, issue.StatusAccepted, updated.Status)
	})

	t.Run("overrides carry only changed fields", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.JSONEq(t, `{"explanation":"edited"}`, string(body))
			writeJSON(t, w, issue.Issue{ID: "7", Status: "accepted"})
		})

		_, err := c.AcceptIssue(context.Background(), "doc-1", "7", &issue.ModifiedFields{Explanation: "edited"})
		require.NoError(t, err)
	})

	t.Run("server rejection surfaces status and body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "issue already resolved", http.StatusConflict)
		})

		_, err := c.AcceptIssue(context.Background(), "doc-1", "7", nil)
		require.Error(t, err)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, KindServer, apiErr.Kind)
		assert.Equal(t, http.StatusConflict, apiErr.Status)
		assert.Contains(t, apiErr.Detail, "issue already resolved")
	})

	t.Run("malformed response is a decode error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>gateway</html>"))
		})

		_, err := c.AcceptIssue(context.Background(), "doc-1", "7", nil)
		assert.True(t, IsKind(err, KindDecode))
	})

	t.Run("path segments are escaped", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/docs/my%20doc/issues/a%2Fb/accept", r.URL.EscapedPath())
			writeJSON(t, w, issue.Issue{ID: "a/b", Status: "accepted"})
		})

		_, err := c.AcceptIssue(context.Background(), "my doc", "a/b", nil)
		require.NoError(t, err)
	})
}

func TestDismissAndFeedback(t *testing.T) {
	t.Run("dismiss", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "/api/v1/docs/doc-1/issues/7/dismiss", r.URL.Path)
			writeJSON(t, w, issue.Issue{ID: "7", Status: "dismissed"})
		})

		updated, err := c.DismissIssue(context.Background(), "doc-1", "7")
		require.NoError(t, err)
		assert.Equal(t, issue.StatusDismissed, updated.Status)
	})

	t.Run("feedback body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/docs/doc-1/issues/7/feedback", r.URL.Path)
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.JSONEq(t, `{"reason":"false positive"}`, string(body))
			w.WriteHeader(http.StatusNoContent)
		})

		err := c.SubmitFeedback(context.Background(), "doc-1", "7", issue.DismissalFeedback{Reason: "false positive"})
		assert.NoError(t, err)
	})
}

func TestStartHITL(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/docs/doc-1/issues/7/hitl/start", r.URL.Path)
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.JSONEq(t, `{"action":"accept","modified_fields":{"explanation":"edited"}}`, string(body))
			writeJSON(t, w, HITLStart{
				ThreadID:       "thread-1",
				InterruptID:    "intr-1",
				ProposedAction: ProposedAction{Name: "update_issue", Args: json.RawMessage(`{"status":"accepted"}`)},
			})
		})

		started, err := c.StartHITL(context.Background(), "doc-1", "7", "accept", &issue.ModifiedFields{Explanation: "edited"})
		require.NoError(t, err)
		assert.Equal(t, "thread-1", started.ThreadID)
		assert.Equal(t, "update_issue", started.ProposedAction.Name)
	})

	t.Run("missing thread_id is a decode error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, HITLStart{ProposedAction: ProposedAction{Name: "update_issue"}})
		})

		_, err := c.StartHITL(context.Background(), "doc-1", "7", "accept", nil)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindDecode))
	})
}

func TestResumeHITL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/docs/doc-1/issues/7/hitl/resume", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"thread_id": "thread-1",
			"interrupt_id": "intr-1",
			"decision": {
				"type": "edit",
				"edited_action": {"name": "update_issue", "args": {"status": "accepted"}}
			}
		}`, string(body))
		writeJSON(t, w, issue.Issue{ID: "7", Status: "accepted"})
	})

	decision := HITLDecision{
		Type:         "edit",
		EditedAction: &ProposedAction{Name: "update_issue", Args: json.RawMessage(`{"status":"accepted"}`)},
	}
	updated, err := c.ResumeHITL(context.Background(), "doc-1", "7", "thread-1", "intr-1", decision)
	require.NoError(t, err)
	assert.Equal(t, issue.StatusAccepted, updated.Status)
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("message collapses to one line", func(t *testing.T) {
		err := &Error{Kind: KindServer, Op: "accept issue", Status: 409, Detail: "already resolved"}
		msg := Message(err)
		assert.Contains(t, msg, "accept issue")
		assert.Contains(t, msg, "409")
		assert.Contains(t, msg, "already resolved")
		assert.False(t, strings.Contains(msg, "\n"))
	})

	t.Run("nil error yields empty message", func(t *testing.T) {
		assert.Empty(t, Message(nil))
	})

	t.Run("kind string", func(t *testing.T) {
		assert.Equal(t, "network", KindNetwork.String())
		assert.Equal(t, "server", KindServer.String())
		assert.Equal(t, "decode", KindDecode.String())
	})

	t.Run("is kind checks wrapped causes", func(t *testing.T) {
		assert.False(t, IsKind(nil, KindServer))
		assert.False(t, IsKind(io.EOF, KindServer))
		wrapped := &Error{Kind: KindNetwork, Op: "list issues", Err: io.EOF}
		assert.True(t, IsKind(wrapped, KindNetwork))
		assert.False(t, IsKind(wrapped, KindServer))
	})
}

func TestTrimDetail(t *testing.T) {
	assert.Equal(t, "no response body", trimDetail(nil))
	assert.Equal(t, "short", trimDetail([]byte("  short \n")))
	long := strings.Repeat("x", 300)
	trimmed := trimDetail([]byte(long))
	assert.Len(t, trimmed, 203)
	assert.True(t, strings.HasSuffix(trimmed, "..."))
}
