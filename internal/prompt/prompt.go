// Package prompt holds the LLM instructions and output schemas for chart
// generation, task analysis and task chat.
package prompt

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// Kind names a prompt set.
type Kind string

const (
	Chart    Kind = "chart"
	Analysis Kind = "analysis"
	Chat     Kind = "chat"
)

type pair struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type compiled struct {
	system *template.Template
	user   *template.Template
}

// Set is a parsed collection of prompt templates.
type Set struct {
	prompts map[Kind]compiled
}

// Vars are substituted into the templates. Unused fields are ignored.
type Vars struct {
	Prompt   string
	Research string
	TaskName string
	Entity   string
	Question string
	Today    string
}

// Load parses the embedded prompts.
func Load() (*Set, error) {
	return Parse(promptsYAML)
}

// Parse builds a Set from YAML. Every kind must be present.
func Parse(b []byte) (*Set, error) {
	var raw map[Kind]pair
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}

	s := &Set{prompts: make(map[Kind]compiled, len(raw))}
	for _, k := range []Kind{Chart, Analysis, Chat} {
		p, ok := raw[k]
		if !ok || strings.TrimSpace(p.System) == "" || strings.TrimSpace(p.User) == "" {
			return nil, fmt.Errorf("prompt %q: system and user are required", k)
		}

		sys, err := template.New(string(k) + ".system").Option("missingkey=error").Parse(p.System)
		if err != nil {
			return nil, fmt.Errorf("prompt %q system: %w", k, err)
		}
		usr, err := template.New(string(k) + ".user").Option("missingkey=error").Parse(p.User)
		if err != nil {
			return nil, fmt.Errorf("prompt %q user: %w", k, err)
		}
		s.prompts[k] = compiled{system: sys, user: usr}
	}

	return s, nil
}

// Render returns the system and user prompt for kind.
func (s *Set) Render(k Kind, v Vars) (system, user string, err error) {
	c, ok := s.prompts[k]
	if !ok {
		return "", "", fmt.Errorf("unknown prompt %q", k)
	}

	var sb, ub strings.Builder
	if err := c.system.Execute(&sb, v); err != nil {
		return "", "", fmt.Errorf("render %s system: %w", k, err)
	}
	if err := c.user.Execute(&ub, v); err != nil {
		return "", "", fmt.Errorf("render %s user: %w", k, err)
	}
	return sb.String(), ub.String(), nil
}
