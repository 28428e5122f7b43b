package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/creativedesign-blip/document-review/internal/api"
	"github.com/creativedesign-blip/document-review/internal/core/config"
	"github.com/creativedesign-blip/document-review/internal/core/issue"
	"github.com/creativedesign-blip/document-review/internal/docreview"
)

func newAcceptApp(t *testing.T) (*docreview.App, *[]byte) {
	t.Helper()
	var lastBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/docs/doc-1/issues", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]issue.Issue{
			{ID: "1", Type: "Grammar & Spelling", Text: "teh report", Status: issue.StatusNotReviewed},
		})
	})
	mux.HandleFunc("PATCH /api/v1/docs/doc-1/issues/1/accept", func(w http.ResponseWriter, r *http.Request) {
		lastBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(issue.Issue{ID: "1", Status: issue.StatusAccepted})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	return docreview.NewApp(api.New(srv.URL, 0), &cfg, "test"), &lastBody
}

func runAccept(t *testing.T, app *docreview.App, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer

	flags := &Flags{DocID: "doc-1"}
	root := &cli.Command{Name: "docrev", Writer: &buf, ErrWriter: &buf}
	NewAcceptCmd(flags, app).Register(root)

	err := root.Run(context.Background(), append([]string{"docrev", "accept"}, args...))
	return buf.String(), err
}

func TestAcceptCmd(t *testing.T) {
	t.Run("output goes through the command writer", func(t *testing.T) {
		app, _ := newAcceptApp(t)

		out, err := runAccept(t, app, "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Issue 1 accepted")
	})

	t.Run("json output", func(t *testing.T) {
		app, _ := newAcceptApp(t)

		out, err := runAccept(t, app, "--json", "1")
		require.NoError(t, err)

		var updated issue.Issue
		require.NoError(t, json.Unmarshal([]byte(out), &updated))
		assert.Equal(t, issue.StatusAccepted, updated.Status)
	})

	t.Run("flag overrides are sent", func(t *testing.T) {
		app, body := newAcceptApp(t)

		_, err := runAccept(t, app, "--explanation", "edited", "1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"explanation":"edited"}`, string(*body))
	})

	t.Run("file overrides win over flags", func(t *testing.T) {
		app, body := newAcceptApp(t)

		path := filepath.Join(t.TempDir(), "overrides.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"explanation":"from file","suggested_fix":"fix"}`), 0o644))

		_, err := runAccept(t, app, "--explanation", "ignored", "-f", path, "1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"explanation":"from file","suggested_fix":"fix"}`, string(*body))
	})

	t.Run("unknown issue", func(t *testing.T) {
		app, _ := newAcceptApp(t)

		_, err := runAccept(t, app, "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}
