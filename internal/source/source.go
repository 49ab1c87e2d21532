// Package source provides the ordered, read-only list of topics a run works through.
package source

import (
	"fmt"
	"strings"
)

// WorkItem is one topic at a fixed position in the source.
type WorkItem struct {
	Index int
	Topic string
}

// Topics is an immutable ordered sequence of topics.
type Topics struct {
	name   string
	topics []string
}

// FromList builds a source from literal topics. Blank entries are rejected.
func FromList(name string, topics []string) (*Topics, error) {
	out := make([]string, 0, len(topics))
	for i, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, fmt.Errorf("%s: topic %d is empty", name, i+1)
		}
		out = append(out, t)
	}
	return &Topics{name: name, topics: out}, nil
}

// Name identifies where the topics came from.
func (s *Topics) Name() string { return s.name }

// Len is the number of topics.
func (s *Topics) Len() int { return len(s.topics) }

// At returns the work item at index i.
func (s *Topics) At(i int) (WorkItem, error) {
	if i < 0 || i >= len(s.topics) {
		return WorkItem{}, fmt.Errorf("topic index %d out of range [0,%d)", i, len(s.topics))
	}
	return WorkItem{Index: i, Topic: s.topics[i]}, nil
}

// Slug returns a filesystem-friendly label for the source.
func (s *Topics) Slug() string {
	return slugFromTitle(s.name)
}

func slugFromTitle(title string) string {
	var sb []byte
	for i := 0; i < len(title); i++ {
		c := title[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			sb = append(sb, c)
		} else if c >= 'A' && c <= 'Z' {
			sb = append(sb, c+32) // to lower
		} else if len(sb) > 0 && sb[len(sb)-1] != '-' {
			sb = append(sb, '-')
		}
	}
	// trim trailing dash
	for len(sb) > 0 && sb[len(sb)-1] == '-' {
		sb = sb[:len(sb)-1]
	}
	s := string(sb)
	if len(s) > 40 {
		s = s[:40]
		for len(s) > 0 && s[len(s)-1] == '-' {
			s = s[:len(s)-1]
		}
	}
	if s == "" {
		return "topics"
	}
	return s
}
