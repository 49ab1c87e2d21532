// Package assets provides the embedded prompt template, default topics and config template.
package assets

import (
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/adrg/xdg"
)

//go:embed prompts/*.md
var promptsFS embed.FS

//go:embed templates/*
var templatesFS embed.FS

//go:embed topics.yaml
var defaultTopics []byte

// LoadPrompt returns the content of a prompt template by name.
// Override lookup order: project .docgen/prompts/ > user $XDG_CONFIG_HOME/docgen/prompts/ > embedded.
func LoadPrompt(name string) (string, error) {
	return loadWithOverride("prompts", name+".md", promptsFS)
}

// LoadTemplate returns an embedded file template (e.g. "config.yaml").
func LoadTemplate(name string) (string, error) {
	data, err := templatesFS.ReadFile(path.Join("templates", name))
	if err != nil {
		return "", fmt.Errorf("template %q not found", name)
	}
	return string(data), nil
}

// DefaultTopics returns the embedded topics.yaml.
func DefaultTopics() ([]byte, error) {
	if len(defaultTopics) == 0 {
		return nil, fmt.Errorf("embedded topics are empty")
	}
	return defaultTopics, nil
}

func loadWithOverride(dir, filename string, embedded embed.FS) (string, error) {
	// 1. project-level override
	projectPath := filepath.Join(".docgen", dir, filename)
	if data, err := os.ReadFile(projectPath); err == nil {
		return string(data), nil
	}

	// 2. user-level override
	userPath := filepath.Join(xdg.ConfigHome, "docgen", dir, filename)
	if data, err := os.ReadFile(userPath); err == nil {
		return string(data), nil
	}

	// 3. embedded default
	data, err := embedded.ReadFile(path.Join(dir, filename))
	if err != nil {
		return "", fmt.Errorf("%s %q not found", dir, filename)
	}
	return string(data), nil
}
