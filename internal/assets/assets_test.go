package assets_test

import (
	"strings"
	"testing"

	"github.com/futureCreator/docgen/internal/assets"
	"gopkg.in/yaml.v3"
)

func TestLoadDocumentPrompt(t *testing.T) {
	content, err := assets.LoadPrompt("document")
	if err != nil {
		t.Fatalf("LoadPrompt(document) error: %v", err)
	}
	for _, want := range []string{
		"{{.Topic}}",
		`"doc"`,
		`"issues"`,
		"NEVER by title",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("document prompt missing expected content: %q", want)
		}
	}
}

func TestLoadPromptUnknown(t *testing.T) {
	if _, err := assets.LoadPrompt("does-not-exist"); err == nil {
		t.Error("expected error for unknown prompt")
	}
}

func TestDefaultTopicsAreValidYAML(t *testing.T) {
	data, err := assets.DefaultTopics()
	if err != nil {
		t.Fatal(err)
	}
	var f struct {
		Topics []string `yaml:"topics"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		t.Fatalf("topics.yaml is not valid YAML: %v", err)
	}
	if len(f.Topics) == 0 {
		t.Error("expected at least one default topic")
	}
}

func TestConfigTemplateContainsComments(t *testing.T) {
	content, err := assets.LoadTemplate("config.yaml")
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	for _, want := range []string{
		"# Remote model used",
		"# Fixed pause after each document",
		"# Artifact file names",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("config template missing comment %q", want)
		}
	}
}
