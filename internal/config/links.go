package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/timescam/koishi/internal/permissions"
)

// Link declares one permission graph edge in the permissions file.
type Link struct {
	// Kind is "inherit" or "depend".
	Kind   string `yaml:"kind"`
	Source string `yaml:"source"`
	Target string `yaml:"target"`

	// When is an optional boolean expression guarding the edge, e.g.
	// "authority >= 2 && platform == 'discord'". An absent expression
	// means the edge is unconditional.
	When string `yaml:"when"`
}

// linksFile is the top-level shape of the permissions YAML file.
type linksFile struct {
	Links []Link `yaml:"links"`
}

// LoadLinks reads permission link declarations from a YAML file.
func LoadLinks(path string) ([]Link, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading permissions file: %w", err)
	}
	var file linksFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing permissions file %s: %w", path, err)
	}
	return file.Links, nil
}

// ApplyLinks registers the declared edges on the resolver. Every link is
// validated and its condition compiled before any edge is registered, so a
// broken permissions file never half-applies.
func ApplyLinks(resolver *permissions.Resolver, links []Link) error {
	conds := make([]permissions.Condition, len(links))
	for i, link := range links {
		if link.Kind != "inherit" && link.Kind != "depend" {
			return fmt.Errorf("link %s -> %s: unknown kind %q", link.Source, link.Target, link.Kind)
		}
		conds[i] = permissions.Always()
		if link.When != "" {
			compiled, err := permissions.CompileExpr(link.When)
			if err != nil {
				return fmt.Errorf("link %s -> %s: %w", link.Source, link.Target, err)
			}
			conds[i] = compiled
		}
	}

	for i, link := range links {
		switch link.Kind {
		case "inherit":
			resolver.Inherit(link.Source, link.Target, conds[i])
		case "depend":
			resolver.Depend(link.Source, link.Target, conds[i])
		}
	}
	if len(links) > 0 {
		slog.Info("permission links applied", "links", len(links))
	}
	return nil
}
