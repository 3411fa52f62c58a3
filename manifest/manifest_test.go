package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "demo"
version = "0.1.0"

[run]
entry = "main.lox"
max-call-depth = 2048

[repl]
prompt = "lox> "
history = "hist"

[log]
verbosity = 2
file = "/tmp/lox.log"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "demo" {
		t.Errorf("project name = %q, want demo", m.Project.Name)
	}
	if m.Project.Version != "0.1.0" {
		t.Errorf("project version = %q, want 0.1.0", m.Project.Version)
	}
	if m.Run.MaxCallDepth != 2048 {
		t.Errorf("max-call-depth = %d, want 2048", m.Run.MaxCallDepth)
	}
	if m.Repl.Prompt != "lox> " {
		t.Errorf("prompt = %q, want %q", m.Repl.Prompt, "lox> ")
	}
	if m.Log.Verbosity != 2 || m.Log.File != "/tmp/lox.log" {
		t.Errorf("log = %+v, want verbosity 2 and file /tmp/lox.log", m.Log)
	}

	absDir, _ := filepath.Abs(dir)
	if m.Dir != absDir {
		t.Errorf("dir = %q, want %q", m.Dir, absDir)
	}
	if got, want := m.EntryPath(), filepath.Join(absDir, "main.lox"); got != want {
		t.Errorf("EntryPath() = %q, want %q", got, want)
	}
	if got, want := m.HistoryPath(), filepath.Join(absDir, "hist"); got != want {
		t.Errorf("HistoryPath() = %q, want %q", got, want)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	def := Default()
	if m.Run.MaxCallDepth != def.Run.MaxCallDepth {
		t.Errorf("max-call-depth = %d, want default %d", m.Run.MaxCallDepth, def.Run.MaxCallDepth)
	}
	if m.Repl.Prompt != "> " || m.Repl.History != ".lox_history" {
		t.Errorf("repl = %+v, want defaults", m.Repl)
	}
	if m.Log.Verbosity != 1 {
		t.Errorf("verbosity = %d, want 1", m.Log.Verbosity)
	}
	if m.EntryPath() != "" {
		t.Errorf("EntryPath() = %q, want empty", m.EntryPath())
	}
}

func TestLoadManifestExplicitZeroVerbosity(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[log]\nverbosity = 0\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Log.Verbosity != 0 {
		t.Errorf("verbosity = %d, want 0", m.Log.Verbosity)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[project\nname = 1", "parse error"},
		{"type", "[run]\nmax-call-depth = \"deep\"", "parse error"},
		{"depth", "[run]\nmax-call-depth = -1", "max-call-depth must be positive"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tc.content)
			_, err := Load(dir)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Load error = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestLoadMissingManifest(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[project]\nname = \"found\"\n")

	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(sub)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil manifest")
	}
	if m.Project.Name != "found" {
		t.Errorf("project name = %q, want found", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	// A lox.toml above the temp dir would be picked up; only check that a
	// missing manifest is not an error.
	if m != nil && m.Dir == "" {
		t.Error("manifest returned without directory")
	}
}

func TestAbsolutePathsKept(t *testing.T) {
	m := Default()
	m.Dir = "/project"
	m.Run.Entry = "/elsewhere/main.lox"
	if got := m.EntryPath(); got != "/elsewhere/main.lox" {
		t.Errorf("EntryPath() = %q, want absolute path unchanged", got)
	}
	m.Repl.History = ""
	if got := m.HistoryPath(); got != "" {
		t.Errorf("HistoryPath() = %q, want empty", got)
	}
}
