package source

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/futureCreator/docgen/internal/assets"
	"gopkg.in/yaml.v3"
)

type topicsFile struct {
	Topics []string `yaml:"topics"`
}

// Default returns the embedded topic list.
func Default() (*Topics, error) {
	data, err := assets.DefaultTopics()
	if err != nil {
		return nil, err
	}
	return parseYAML("default", data)
}

// LoadFile reads topics from a YAML file with a top-level "topics" list, or
// from a plain text file with one topic per line ("#" starts a comment).
func LoadFile(path string) (*Topics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topics file %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(name, data)
	default:
		return parseLines(name, string(data))
	}
}

func parseYAML(name string, data []byte) (*Topics, error) {
	var f topicsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing topics %s: %w", name, err)
	}
	if len(f.Topics) == 0 {
		return nil, fmt.Errorf("topics %s: no topics listed", name)
	}
	return FromList(name, f.Topics)
}

func parseLines(name, content string) (*Topics, error) {
	var topics []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		topics = append(topics, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading topics %s: %w", name, err)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("topics %s: no topics listed", name)
	}
	return FromList(name, topics)
}
