package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSystemPromptTemplate is used when no prompt file is present or the
// file leaves the template empty.
const DefaultSystemPromptTemplate = `You are the conversational assistant for the professional profile of {{PROFILE_NAME}}.
Answer visitor questions using only the information below. If the answer is not there, say so.
Keep answers short and use simple Markdown.

{{CONTEXT_INFO}}`

// PromptTemplate is a system prompt template. In YAML it may be written as a
// single string or as a list of lines joined with newlines.
type PromptTemplate string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (p *PromptTemplate) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*p = PromptTemplate(node.Value)
		return nil
	case yaml.SequenceNode:
		var lines []string
		if err := node.Decode(&lines); err != nil {
			return fmt.Errorf("systemPromptTemplate: %w", err)
		}
		*p = PromptTemplate(strings.Join(lines, "\n"))
		return nil
	default:
		return fmt.Errorf("systemPromptTemplate: expected string or list of strings, line %d", node.Line)
	}
}

// DefaultFixedSuggestions always lead the starter questions.
var DefaultFixedSuggestions = []string{
	"Give me a summary of your professional experience.",
	"How can I contact you?",
}

// DefaultCandidateSuggestions are sampled after the fixed questions.
var DefaultCandidateSuggestions = []string{
	"What are your most relevant achievements?",
	"Which companies have you worked for?",
	"What are your key skills?",
	"How has your career evolved to your current role?",
	"What services do you offer?",
	"What values guide your work?",
}

// Suggestions configures the starter questions offered to visitors.
type Suggestions struct {
	Fixed      []string `yaml:"fixed"`
	Candidates []string `yaml:"candidates"`
}

// PromptConfig is the prompt configuration file. JSON files parse too, JSON
// being a subset of YAML.
type PromptConfig struct {
	SystemPromptTemplate PromptTemplate `yaml:"systemPromptTemplate"`
	FallbackProfileName  string         `yaml:"fallbackProfileName"`
	FallbackHeadline     string         `yaml:"fallbackHeadline"`
	Suggestions          Suggestions    `yaml:"suggestions"`
}

// LoadPrompt reads the prompt configuration at path. If the file does not
// exist, returns defaults.
func LoadPrompt(path string) (*PromptConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultPromptConfig(), nil
		}
		return nil, fmt.Errorf("failed to read prompt config: %w", err)
	}

	var cfg PromptConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse prompt config %s: %w", path, err)
	}
	applyPromptDefaults(&cfg)
	return &cfg, nil
}

// Template returns the template as a plain string.
func (p *PromptConfig) Template() string {
	return string(p.SystemPromptTemplate)
}

func defaultPromptConfig() *PromptConfig {
	cfg := &PromptConfig{}
	applyPromptDefaults(cfg)
	return cfg
}

func applyPromptDefaults(cfg *PromptConfig) {
	if strings.TrimSpace(string(cfg.SystemPromptTemplate)) == "" {
		cfg.SystemPromptTemplate = DefaultSystemPromptTemplate
	}
	// A file that lists neither set keeps the defaults; listing one set
	// replaces only that set.
	if cfg.Suggestions.Fixed == nil {
		cfg.Suggestions.Fixed = slices.Clone(DefaultFixedSuggestions)
	}
	if cfg.Suggestions.Candidates == nil {
		cfg.Suggestions.Candidates = slices.Clone(DefaultCandidateSuggestions)
	}
}
