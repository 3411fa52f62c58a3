// Package manifest handles lox.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "lox.toml"

// Manifest represents a lox.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Run     Run     `toml:"run"`
	Repl    Repl    `toml:"repl"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the lox.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Run configures script execution.
type Run struct {
	// Entry is the script run when no script argument is given.
	Entry        string `toml:"entry"`
	MaxCallDepth int    `toml:"max-call-depth"`
}

// Repl configures the interactive prompt.
type Repl struct {
	Prompt  string `toml:"prompt"`
	History string `toml:"history"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"` // empty: stderr
}

// Default returns the configuration used when no lox.toml is present.
func Default() *Manifest {
	return &Manifest{
		Run:  Run{MaxCallDepth: 1024},
		Repl: Repl{Prompt: "> ", History: ".lox_history"},
		Log:  Log{Verbosity: 1},
	}
}

// Load parses a lox.toml file from the given directory. Keys missing from
// the file keep their Default values.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.Run.MaxCallDepth <= 0 {
		return nil, fmt.Errorf("%s: max-call-depth must be positive, got %d", path, m.Run.MaxCallDepth)
	}
	if m.Repl.Prompt == "" {
		m.Repl.Prompt = "> "
	}

	return m, nil
}

// FindAndLoad walks up from startDir to find a lox.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// EntryPath returns the absolute path of the entry script, or "" when none
// is configured.
func (m *Manifest) EntryPath() string {
	if m.Run.Entry == "" {
		return ""
	}
	return m.resolve(m.Run.Entry)
}

// HistoryPath returns where the REPL keeps its history, or "" to disable it.
func (m *Manifest) HistoryPath() string {
	if m.Repl.History == "" {
		return ""
	}
	return m.resolve(m.Repl.History)
}

// resolve makes p absolute relative to the manifest directory.
func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}
