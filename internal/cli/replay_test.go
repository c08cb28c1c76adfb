package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeScript(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.json")
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReplayPrintsGraph(t *testing.T) {
	script := writeScript(t, `[
		{"op": "apply", "at": 0, "text": "hello"},
		{"op": "undo"},
		{"op": "apply", "at": 0, "text": "H"},
		{"op": "save"}
	]`)

	out, err := runCommand(t, "replay", script)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `buffer: "H"`) {
		t.Errorf("output missing buffer line:\n%s", out)
	}
	if !strings.Contains(out, "|/") {
		t.Errorf("output missing the fork join:\n%s", out)
	}
	if !strings.Contains(out, "(current, saved)") {
		t.Errorf("output missing the saved mark:\n%s", out)
	}
}

func TestReplayGoToBranch(t *testing.T) {
	script := writeScript(t, `[
		{"op": "apply", "at": 0, "text": "hello"},
		{"op": "undo"},
		{"op": "apply", "at": 0, "text": "H"},
		{"op": "goto", "branch": 1, "index": 1}
	]`)

	out, err := runCommand(t, "replay", script)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `buffer: "hello"`) {
		t.Errorf("goto should land on the abandoned edit:\n%s", out)
	}
}

func TestReplayDumpAndLoad(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "history.json")
	first := writeScript(t, `[{"op": "apply", "at": 0, "text": "H"}]`)
	if _, err := runCommand(t, "replay", first, "--dump", dump); err != nil {
		t.Fatal(err)
	}

	second := writeScript(t, `[{"op": "apply", "at": 1, "text": "i"}]`)
	out, err := runCommand(t, "replay", second, "--load", dump)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `buffer: "Hi"`) {
		t.Errorf("loaded history should resume where the dump left off:\n%s", out)
	}
}

func TestReplayRejectsBadScript(t *testing.T) {
	script := writeScript(t, `[{"op": "explode"}]`)
	if _, err := runCommand(t, "replay", script); err == nil ||
		!strings.Contains(err.Error(), "unknown operation") {
		t.Errorf("Execute = %v, want unknown operation error", err)
	}

	notArray := writeScript(t, `{"op": "apply"}`)
	if _, err := runCommand(t, "replay", notArray); err == nil {
		t.Error("Execute should reject a non-array script")
	}
}

func TestLoadDemoConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	if err := os.WriteFile(path, []byte("limit: 5\ntext: hello\ndetailed: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadDemoConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Limit != 5 || cfg.Text != "hello" || !cfg.Detailed {
		t.Errorf("config = %+v", cfg)
	}

	if _, err := loadDemoConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing config file should be an error")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("limit: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadDemoConfig(bad); err == nil {
		t.Error("negative limit should be rejected")
	}

	cfg, err = loadDemoConfig("")
	if err != nil || cfg != (DemoConfig{}) {
		t.Errorf("empty path = %+v, %v, want zero config", cfg, err)
	}
}
