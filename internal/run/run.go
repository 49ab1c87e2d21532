package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Item statuses.
const (
	ItemStructured = "structured"
	ItemDegraded   = "degraded"
	ItemFailed     = "failed"
)

// Run represents a single pipeline execution.
type Run struct {
	ID   string
	Dir  string
	Meta Meta
}

// Meta holds metadata about a run, persisted to meta.json.
type Meta struct {
	StartedAt  time.Time    `json:"started_at"`
	Status     string       `json:"status"` // "running" | "completed" | "failed"
	Model      string       `json:"model"`
	Source     string       `json:"source"`
	OutputDir  string       `json:"output_dir"`
	Limit      int          `json:"limit"`
	Items      []ItemResult `json:"items"`
	Degraded   int          `json:"degraded"`
	TotalCost  float64      `json:"total_cost"`
	DurationMS int64        `json:"duration_ms,omitempty"`
	Error      string       `json:"error,omitempty"`
	GitBranch  string       `json:"git_branch,omitempty"`
	GitCommit  string       `json:"git_commit,omitempty"`
	GitDirty   bool         `json:"git_dirty,omitempty"`
}

// ItemResult records the outcome of a single work item.
type ItemResult struct {
	Index      int     `json:"index"` // 1-based
	Topic      string  `json:"topic"`
	Artifact   string  `json:"artifact,omitempty"`
	Status     string  `json:"status"` // "structured" | "degraded" | "failed"
	Cost       float64 `json:"cost"`
	TokensIn   int     `json:"tokens_in"`
	TokensOut  int     `json:"tokens_out"`
	DurationMS int64   `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

// New creates a new run directory under baseDir and writes the initial meta.json.
func New(baseDir, slug string, meta Meta) (*Run, error) {
	now := time.Now()
	ms := now.UnixMilli() % 1000
	id := fmt.Sprintf("%s-%03d-%s",
		now.Format("20060102-150405"),
		ms,
		sanitizeSlug(slug),
	)

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating runs dir: %w", err)
	}

	dir := filepath.Join(baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating run dir: %w", err)
	}

	meta.StartedAt = now
	meta.Status = StatusRunning
	r := &Run{ID: id, Dir: dir, Meta: meta}

	if err := r.SaveMeta(); err != nil {
		return nil, err
	}

	if err := updateLatestLink(baseDir, id); err != nil {
		return nil, err
	}

	return r, nil
}

// SaveMeta writes meta.json to the run directory.
func (r *Run) SaveMeta() error {
	data, err := json.MarshalIndent(r.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling meta: %w", err)
	}
	path := filepath.Join(r.Dir, "meta.json")
	return os.WriteFile(path, data, 0644)
}

// AddItem appends an item result and updates totals.
func (r *Run) AddItem(ir ItemResult) error {
	r.Meta.Items = append(r.Meta.Items, ir)
	r.Meta.TotalCost += ir.Cost
	if ir.Status == ItemDegraded {
		r.Meta.Degraded++
	}
	return r.SaveMeta()
}

// Complete marks the run as completed.
func (r *Run) Complete(elapsed time.Duration) error {
	r.Meta.Status = StatusCompleted
	r.Meta.DurationMS = elapsed.Milliseconds()
	return r.SaveMeta()
}

// Fail marks the run as failed with an error message.
func (r *Run) Fail(msg string, elapsed time.Duration) error {
	r.Meta.Status = StatusFailed
	r.Meta.Error = msg
	r.Meta.DurationMS = elapsed.Milliseconds()
	return r.SaveMeta()
}

// FilePath returns the path to a file within this run directory.
func (r *Run) FilePath(name string) string {
	return filepath.Join(r.Dir, name)
}

// Summary is one previous run read back from disk.
type Summary struct {
	ID   string
	Meta Meta
}

// List reads every run under baseDir, newest first. Unreadable runs are skipped.
func List(baseDir string) ([]Summary, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, err
	}
	var out []Summary
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "latest" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(baseDir, e.Name(), "meta.json"))
		if err != nil {
			continue
		}
		var meta Meta
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		out = append(out, Summary{ID: e.Name(), Meta: meta})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Meta.StartedAt.After(out[j].Meta.StartedAt)
	})
	return out, nil
}

// updateLatestLink atomically updates the "latest" symlink.
func updateLatestLink(baseDir, id string) error {
	latestPath := filepath.Join(baseDir, "latest")
	tmpPath := latestPath + ".tmp"

	// Remove any stale tmp link
	os.Remove(tmpPath)

	if err := os.Symlink(id, tmpPath); err != nil {
		return fmt.Errorf("creating temp symlink: %w", err)
	}
	if err := os.Rename(tmpPath, latestPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("updating latest symlink: %w", err)
	}
	return nil
}

var nonAlphanumRe = regexp.MustCompile(`[^a-z0-9]+`)

// sanitizeSlug converts a string to a URL-friendly slug.
func sanitizeSlug(s string) string {
	s = strings.ToLower(s)
	s = nonAlphanumRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 40 {
		s = s[:40]
		s = strings.TrimRight(s, "-")
	}
	if s == "" {
		s = "run"
	}
	return s
}
