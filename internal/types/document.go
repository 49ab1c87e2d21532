// Package types holds shared data structures used across packages.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Issue is a single unit of follow-up work extracted from a document.
// Dependency lists the IDs of other issues in the same DocumentIssues.
type Issue struct {
	ID         string   `json:"id,omitempty"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Labels     []string `json:"labels"`
	Dependency []string `json:"dependency"`
}

// MarshalJSON always emits labels and dependency as arrays.
func (i Issue) MarshalJSON() ([]byte, error) {
	type issue Issue
	out := issue(i)
	if out.Labels == nil {
		out.Labels = []string{}
	}
	if out.Dependency == nil {
		out.Dependency = []string{}
	}
	return marshalUnescaped(out)
}

// DocumentIssues is the structured payload: a document plus its issues.
type DocumentIssues struct {
	Doc    string  `json:"doc"`
	Issues []Issue `json:"issues"`

	missing  []string
	original json.RawMessage
}

// MarshalJSON emits exactly the doc and issues fields.
func (d DocumentIssues) MarshalJSON() ([]byte, error) {
	issues := d.Issues
	if issues == nil {
		issues = []Issue{}
	}
	return marshalUnescaped(struct {
		Doc    string  `json:"doc"`
		Issues []Issue `json:"issues"`
	}{d.Doc, issues})
}

// marshalUnescaped keeps <, > and & literal; docs are Markdown, not HTML.
func marshalUnescaped(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Missing returns the required fields absent from the decoded object.
func (d *DocumentIssues) Missing() []string { return d.missing }

// Complete reports whether both doc and issues were present.
func (d *DocumentIssues) Complete() bool { return len(d.missing) == 0 }

// Original returns the JSON object the payload was decoded from, if any.
func (d *DocumentIssues) Original() []byte { return d.original }

// Problems lists dependency-graph defects: duplicate issue IDs and
// dependencies on IDs that do not exist in this payload.
func (d *DocumentIssues) Problems() []string {
	var out []string
	ids := make(map[string]bool, len(d.Issues))
	for _, is := range d.Issues {
		if is.ID == "" {
			continue
		}
		if ids[is.ID] {
			out = append(out, fmt.Sprintf("duplicate issue id %q", is.ID))
		}
		ids[is.ID] = true
	}
	for _, is := range d.Issues {
		for _, dep := range is.Dependency {
			if !ids[dep] {
				out = append(out, fmt.Sprintf("issue %q depends on unknown id %q", is.Title, dep))
			}
		}
	}
	return out
}

// Kind tags which variant of a Result is populated.
type Kind int

const (
	KindRaw Kind = iota
	KindStructured
)

func (k Kind) String() string {
	if k == KindStructured {
		return "structured"
	}
	return "raw"
}

// Result is either a structured payload or raw text, never both.
type Result struct {
	Kind     Kind
	Document *DocumentIssues
	Raw      string
}

// Structured wraps a decoded payload.
func Structured(d *DocumentIssues) Result {
	return Result{Kind: KindStructured, Document: d}
}

// RawText wraps free text that could not be coerced into the schema.
func RawText(s string) Result {
	return Result{Kind: KindRaw, Raw: s}
}

// Generation is one completed generator call.
type Generation struct {
	Result    Result
	Model     string
	Cost      float64
	TokensIn  int
	TokensOut int
	Duration  time.Duration
}
