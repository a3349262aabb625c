package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Personas holds the system prompts for the advisor's three operating modes.
// They are loaded from an optional YAML file so prompt tuning does not
// require a rebuild.
type Personas struct {
	// Advisor is the system prompt for the streaming conversation pipeline.
	Advisor string `yaml:"advisor"`
	// Analyst is the system prompt for one-shot conversation analysis.
	Analyst string `yaml:"analyst"`
	// Polisher is the system prompt for draft-message polishing.
	Polisher string `yaml:"polisher"`
}

// DefaultPersonas returns the built-in prompts used when no persona file is
// configured.
func DefaultPersonas() *Personas {
	return &Personas{
		Advisor: "You are a thoughtful personal relationship advisor. " +
			"Use the contact profile and conversation history provided to give " +
			"concrete, empathetic advice. Be direct and never invent facts about the contact.",
		Analyst: "You analyze a conversation between the user and one of their contacts. " +
			"Summarize the dynamics in a few sentences, then list notable risks and " +
			"strategies, one per line, each prefixed with 'RISK:' or 'STRATEGY:'.",
		Polisher: "You polish draft messages. Rewrite the draft so it is clear, warm and " +
			"appropriate for the relationship described. Return only the rewritten message.",
	}
}

// LoadPersonas reads the persona file at path, falling back to defaults for
// any prompt the file leaves empty. An empty path returns the defaults.
func LoadPersonas(path string) (*Personas, error) {
	personas := DefaultPersonas()
	if path == "" {
		return personas, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}

	var loaded Personas
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse persona file: %w", err)
	}

	if loaded.Advisor != "" {
		personas.Advisor = loaded.Advisor
	}
	if loaded.Analyst != "" {
		personas.Analyst = loaded.Analyst
	}
	if loaded.Polisher != "" {
		personas.Polisher = loaded.Polisher
	}

	return personas, nil
}
