package run

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSanitizeSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Backend Topics", "backend-topics"},
		{"Add User's Profile (v2)", "add-user-s-profile-v2"},
		{"  spaces  ", "spaces"},
		{"", "run"},
		{"123-abc", "123-abc"},
		{strings.Repeat("a", 50), strings.Repeat("a", 40)},
	}
	for _, tt := range tests {
		got := sanitizeSlug(tt.input)
		if got != tt.want {
			t.Errorf("sanitizeSlug(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	base := filepath.Join(t.TempDir(), "runs")

	r, err := New(base, "default", Meta{Model: "gemini-2.5-flash", Limit: 3, GitBranch: "main"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if r.Meta.Status != StatusRunning {
		t.Errorf("expected status 'running', got %q", r.Meta.Status)
	}
	if r.Meta.GitBranch != "main" {
		t.Errorf("expected branch 'main', got %q", r.Meta.GitBranch)
	}
	if !strings.HasSuffix(r.ID, "-default") {
		t.Errorf("run id %q should end with the slug", r.ID)
	}

	// Verify meta.json was written
	if _, err := os.Stat(r.FilePath("meta.json")); err != nil {
		t.Errorf("meta.json not created: %v", err)
	}

	// Verify latest symlink
	latestTarget, err := os.Readlink(filepath.Join(base, "latest"))
	if err != nil {
		t.Errorf("latest symlink not created: %v", err)
	}
	if latestTarget != r.ID {
		t.Errorf("latest symlink points to %q, want %q", latestTarget, r.ID)
	}
}

func TestItemBookkeeping(t *testing.T) {
	r, err := New(t.TempDir(), "topics", Meta{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.AddItem(ItemResult{Index: 1, Topic: "a", Status: ItemStructured, Cost: 0.25}); err != nil {
		t.Fatal(err)
	}
	if err := r.AddItem(ItemResult{Index: 2, Topic: "b", Status: ItemDegraded, Cost: 0.5}); err != nil {
		t.Fatal(err)
	}
	if err := r.Complete(1500 * time.Millisecond); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(r.FilePath("meta.json"))
	if err != nil {
		t.Fatal(err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatal(err)
	}
	if meta.Status != StatusCompleted {
		t.Errorf("Status = %q", meta.Status)
	}
	if len(meta.Items) != 2 || meta.Degraded != 1 {
		t.Errorf("unexpected items %+v (degraded %d)", meta.Items, meta.Degraded)
	}
	if meta.TotalCost != 0.75 {
		t.Errorf("TotalCost = %v, want 0.75", meta.TotalCost)
	}
	if meta.DurationMS != 1500 {
		t.Errorf("DurationMS = %d", meta.DurationMS)
	}
}

func TestFail(t *testing.T) {
	r, err := New(t.TempDir(), "topics", Meta{})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Fail("doc 2: connection refused", time.Second); err != nil {
		t.Fatal(err)
	}
	if r.Meta.Status != StatusFailed || r.Meta.Error == "" {
		t.Errorf("unexpected meta %+v", r.Meta)
	}
}

func TestList(t *testing.T) {
	base := t.TempDir()
	first, err := New(base, "first", Meta{})
	if err != nil {
		t.Fatal(err)
	}
	first.Meta.StartedAt = time.Now().Add(-time.Hour)
	if err := first.SaveMeta(); err != nil {
		t.Fatal(err)
	}
	second, err := New(base, "second", Meta{})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(base, "broken"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err := List(base)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID {
		t.Errorf("newest run should come first, got %q", runs[0].ID)
	}
}

func TestListMissingDir(t *testing.T) {
	if _, err := List(filepath.Join(t.TempDir(), "nope")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestGitStateRecorded(t *testing.T) {
	base := t.TempDir()
	r, err := New(base, "dirty", Meta{GitBranch: "main", GitCommit: "abc1234", GitDirty: true})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(r.FilePath("meta.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"git_dirty": true`) {
		t.Errorf("meta.json missing git_dirty: %s", data)
	}

	runs, err := List(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || !runs[0].Meta.GitDirty || runs[0].Meta.GitCommit != "abc1234" {
		t.Errorf("List() = %+v", runs)
	}
}
