package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/futureCreator/docgen/internal/config"
)

// ClaudeCodeExecutor answers prompts through the claude CLI in print mode.
type ClaudeCodeExecutor struct {
	Config *config.Config
}

type claudeCodeOutput struct {
	Result       string  `json:"result"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

func (e *ClaudeCodeExecutor) Execute(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	entry := e.Config.ClaudeCode
	cmdName := entry.Command
	if cmdName == "" {
		cmdName = "claude"
	}
	args := []string{"-p", "--output-format", "json"}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	args = append(args, entry.Args...)

	timeout, err := parseTimeout(entry.Timeout)
	if err != nil {
		timeout = 300 * time.Second
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, cmdName, args...)
	cmd.Stdin = bytes.NewBufferString(req.Prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("claude-code executor: %w\nstderr: %s", err, stderr.String())
	}

	output := stdout.String()
	var c float64

	// Try to parse JSON output from claude -p --output-format json
	var parsed claudeCodeOutput
	if err := json.Unmarshal([]byte(output), &parsed); err == nil && parsed.Result != "" {
		output = parsed.Result
		c = parsed.TotalCostUSD
	}

	return &Result{
		Output:   strings.TrimSpace(output),
		Cost:     c,
		Duration: time.Since(start),
	}, nil
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 300 * time.Second, nil
	}
	return time.ParseDuration(s)
}
