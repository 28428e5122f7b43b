package iojson

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalError(t *testing.T) {
	out := MarshalError("something failed", map[string]any{"doc": "doc-1"})

	var decoded Error
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "something failed", decoded.Message)
	assert.Equal(t, "doc-1", decoded.Data["doc"])
}

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, WriteWith(&out, &errOut, map[string]string{"id": "7"}))

	assert.JSONEq(t, `{"id":"7"}`, out.String())
	assert.Zero(t, errOut.Len())
}

func TestFileReader(t *testing.T) {
	t.Run("unset without flag", func(t *testing.T) {
		var fr FileReader[map[string]string]
		assert.False(t, fr.Set(), "no flag and no piped stdin means no input")
	})

	t.Run("reads from flag file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "input.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"explanation":"edited"}`), 0o644))

		var fr FileReader[map[string]string]
		fr.fileFlagValue = path
		require.True(t, fr.Set())

		got, err := fr.Read()
		require.NoError(t, err)
		assert.Equal(t, "edited", got["explanation"])
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "input.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

		var fr FileReader[map[string]string]
		fr.fileFlagValue = path
		_, err := fr.Read()
		require.ErrorContains(t, err, "decode JSON")
	})
}

func TestWriteLine(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteLine(&out, map[string]string{"id": "7"}))
	require.NoError(t, WriteLine(&out, map[string]string{"id": "8"}))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 2, "one compact JSON object per line")
	assert.JSONEq(t, `{"id":"7"}`, string(lines[0]))
	assert.JSONEq(t, `{"id":"8"}`, string(lines[1]))
}
