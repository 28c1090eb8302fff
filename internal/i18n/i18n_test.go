package i18n

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTextSubstitutesParams(t *testing.T) {
	tr := New()
	tr.Define(map[string]string{"greet": "Hello {name}, you are {role}."})

	got := tr.Text("greet", map[string]any{"name": "ana", "role": "admin"})
	if got != "Hello ana, you are admin." {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestTextMissingPathFallsBack(t *testing.T) {
	tr := New()
	if got := tr.Text("no.such.path", nil); got != "no.such.path" {
		t.Fatalf("missing path must render as itself, got %q", got)
	}
}

func TestBuiltinMessages(t *testing.T) {
	tr := New()
	paths := []string{
		"internal.error",
		"internal.low-authority",
		"internal.denied",
		"internal.unknown-command",
		"internal.unknown-option",
		"internal.insufficient-arguments",
		"internal.redundant-arguments",
	}
	for _, path := range paths {
		if got := tr.Text(path, nil); got == path || got == "" {
			t.Fatalf("built-in message %q is not defined", path)
		}
	}
}

func TestDefineReplaces(t *testing.T) {
	tr := New()
	tr.Define(map[string]string{"internal.error": "Custom failure text."})
	if got := tr.Text("internal.error", nil); got != "Custom failure text." {
		t.Fatalf("Define must replace, got %q", got)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locale.yaml")
	content := `
commands:
  echo:
    description: Repeats its arguments.
internal:
  error: "Something broke: {reason}"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	tr := New()
	if err := tr.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if got := tr.Text("commands.echo.description", nil); got != "Repeats its arguments." {
		t.Fatalf("nested path not flattened, got %q", got)
	}
	if got := tr.Text("internal.error", map[string]any{"reason": "disk"}); got != "Something broke: disk" {
		t.Fatalf("file must override built-ins, got %q", got)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tr := New()
	if err := tr.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- broken"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := tr.LoadFile(path); err == nil {
		t.Fatalf("expected an error for malformed YAML")
	}
}
