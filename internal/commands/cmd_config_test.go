package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/creativedesign-blip/document-review/internal/core/config"
	"github.com/creativedesign-blip/document-review/internal/docreview"
)

func runConfigValidate(t *testing.T, cfg *config.Config, args ...string) string {
	t.Helper()
	var buf bytes.Buffer

	app := docreview.NewApp(nil, cfg, "test")
	flags := &Flags{}
	root := &cli.Command{Name: "docrev", Writer: &buf}
	NewConfigValidateCmd(flags, app).Register(root)

	err := root.Run(context.Background(), append([]string{"docrev", "config", "validate"}, args...))
	require.NoError(t, err)
	return buf.String()
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := config.DefaultConfig()
		out := runConfigValidate(t, &cfg)
		assert.Contains(t, out, "Configuration is valid")
	})

	t.Run("unknown theme fails", func(t *testing.T) {
		// The action is invoked directly so the exit coder is observable
		// instead of terminating the test binary.
		cfg := config.DefaultConfig()
		cfg.TUI.Theme = "no-such-theme"

		var buf bytes.Buffer
		cmd := NewConfigValidateCmd(&Flags{}, docreview.NewApp(nil, &cfg, "test"))
		err := cmd.run(context.Background(), &cli.Command{Name: "docrev", Writer: &buf})

		require.Error(t, err)
		assert.Contains(t, buf.String(), "no-such-theme")

		var coder cli.ExitCoder
		require.ErrorAs(t, err, &coder)
		assert.Equal(t, 1, coder.ExitCode())
	})

	t.Run("json output reports validity", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.TUI.Theme = "no-such-theme"

		out := runConfigValidate(t, &cfg, "--format", "json")

		var decoded struct {
			Valid bool   `json:"valid"`
			Error string `json:"error"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.False(t, decoded.Valid)
		assert.Contains(t, decoded.Error, "no-such-theme")
	})
}
