// Package i18n provides the message catalog used to render user-facing
// command output and error text.
package i18n

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Translator resolves dotted message paths to text templates. Templates use
// {name} placeholders substituted from the params map.
type Translator struct {
	mu       sync.RWMutex
	messages map[string]string
}

// New creates an empty Translator seeded with the built-in messages the
// engine itself needs.
func New() *Translator {
	t := &Translator{messages: make(map[string]string)}
	t.Define(map[string]string{
		"internal.error":                  "An internal error occurred.",
		"internal.low-authority":          "You do not have permission to use this command.",
		"internal.denied":                 "Permission denied: {permission}.",
		"internal.unknown-command":        "Unknown command: {command}.",
		"internal.unknown-option":         "Unknown option: {option}.",
		"internal.insufficient-arguments": "Not enough arguments.",
		"internal.redundant-arguments":    "Too many arguments.",
	})
	return t
}

// Define registers or replaces message templates.
func (t *Translator) Define(messages map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, tmpl := range messages {
		t.messages[path] = tmpl
	}
}

// LoadFile merges a YAML message catalog into the translator. The file maps
// dotted paths to templates, optionally nested.
func (t *Translator) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading locale file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing locale file %s: %w", path, err)
	}
	flat := make(map[string]string)
	flatten("", raw, flat)
	t.Define(flat)
	slog.Info("locale loaded", "path", path, "messages", len(flat))
	return nil
}

// Text renders the message at path with the given params. A missing path
// falls back to the path itself so broken lookups stay visible instead of
// silently producing empty output.
func (t *Translator) Text(path string, params map[string]any) string {
	t.mu.RLock()
	tmpl, ok := t.messages[path]
	t.mu.RUnlock()
	if !ok {
		return path
	}
	for key, value := range params {
		tmpl = strings.ReplaceAll(tmpl, "{"+key+"}", fmt.Sprint(value))
	}
	return tmpl
}

// flatten converts nested YAML maps into dotted paths.
func flatten(prefix string, raw map[string]any, out map[string]string) {
	for key, value := range raw {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(path, v, out)
		default:
			out[path] = fmt.Sprint(v)
		}
	}
}
