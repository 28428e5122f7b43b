package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/creativedesign-blip/document-review/internal/docreview"
)

// Flags holds global flag destinations shared by all commands.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
	ServerURL  string
	DocID      string
}

// resolveDoc returns the document to operate on: the --doc flag when set,
// otherwise the configured default.
func resolveDoc(flags *Flags, app *docreview.App) (string, error) {
	if flags.DocID != "" {
		return flags.DocID, nil
	}
	if app.Config != nil && app.Config.DefaultDoc != "" {
		return app.Config.DefaultDoc, nil
	}
	return "", fmt.Errorf("no document specified; pass --doc or set default_doc in the config")
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "docrev", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "docrev")
}

// DefaultLogFile returns the default log file path using the system's state
// directory.
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "docrev", "docrev.log")
	}

	home, _ := os.UserHomeDir()

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "docrev", "docrev.log")
	}

	return filepath.Join(home, ".local", "state", "docrev", "docrev.log")
}
