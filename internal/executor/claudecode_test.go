package executor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/futureCreator/docgen/internal/config"
)

// fakeClaude writes a shell script standing in for the claude CLI. It records
// its arguments and stdin in dir, then runs body.
func fakeClaude(t *testing.T, body string) (cmd, dir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a POSIX shell")
	}
	dir = t.TempDir()
	script := "#!/bin/sh\n" +
		"printf '%s\\n' \"$@\" > '" + filepath.Join(dir, "args") + "'\n" +
		"cat > '" + filepath.Join(dir, "stdin") + "'\n" +
		body + "\n"
	cmd = filepath.Join(dir, "claude")
	if err := os.WriteFile(cmd, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return cmd, dir
}

func newClaudeExecutor(command string, args []string, timeout string) *ClaudeCodeExecutor {
	return &ClaudeCodeExecutor{Config: &config.Config{
		ClaudeCode: config.ClaudeCodeConfig{Command: command, Args: args, Timeout: timeout},
	}}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestClaudeCodeExecutorParsesJSON(t *testing.T) {
	cmd, dir := fakeClaude(t, `echo '{"result":"  {\"doc\":\"d\",\"issues\":[]}  ","total_cost_usd":0.25}'`)
	exec := newClaudeExecutor(cmd, []string{"--max-turns", "1"}, "")

	result, err := exec.Execute(context.Background(), &Request{Model: "sonnet", Prompt: "Topic: caching"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if result.Output != `{"doc":"d","issues":[]}` {
		t.Errorf("Output = %q", result.Output)
	}
	if result.Cost != 0.25 {
		t.Errorf("Cost = %f, want 0.25", result.Cost)
	}

	want := []string{"-p", "--output-format", "json", "--model", "sonnet", "--max-turns", "1"}
	if got := readLines(t, filepath.Join(dir, "args")); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("args = %q, want %q", got, want)
	}
	stdin, err := os.ReadFile(filepath.Join(dir, "stdin"))
	if err != nil {
		t.Fatal(err)
	}
	if string(stdin) != "Topic: caching" {
		t.Errorf("stdin = %q, want the prompt", stdin)
	}
}

func TestClaudeCodeExecutorOmitsEmptyModel(t *testing.T) {
	cmd, dir := fakeClaude(t, `echo '{"result":"ok"}'`)
	exec := newClaudeExecutor(cmd, nil, "")

	if _, err := exec.Execute(context.Background(), &Request{Prompt: "p"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	for _, arg := range readLines(t, filepath.Join(dir, "args")) {
		if arg == "--model" {
			t.Error("--model passed without a model")
		}
	}
}

func TestClaudeCodeExecutorPlainTextFallback(t *testing.T) {
	cmd, _ := fakeClaude(t, `printf '\n  just prose, no envelope  \n\n'`)
	exec := newClaudeExecutor(cmd, nil, "")

	result, err := exec.Execute(context.Background(), &Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if result.Output != "just prose, no envelope" {
		t.Errorf("Output = %q", result.Output)
	}
	if result.Cost != 0 {
		t.Errorf("Cost = %f, want 0", result.Cost)
	}
}

func TestClaudeCodeExecutorErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		timeout string
		wantMsg string
	}{
		{"non-zero exit", "echo 'rate limited' >&2; exit 3", "", "rate limited"},
		{"timeout", "exec sleep 5", "100ms", "claude-code executor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _ := fakeClaude(t, tt.body)
			exec := newClaudeExecutor(cmd, nil, tt.timeout)

			_, err := exec.Execute(context.Background(), &Request{Prompt: "p"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestClaudeCodeExecutorMissingBinary(t *testing.T) {
	exec := newClaudeExecutor(filepath.Join(t.TempDir(), "no-such-claude"), nil, "")
	if _, err := exec.Execute(context.Background(), &Request{Prompt: "p"}); err == nil {
		t.Error("expected error for missing command")
	}
}

func TestParseTimeout(t *testing.T) {
	if d, err := parseTimeout(""); err != nil || d.Seconds() != 300 {
		t.Errorf("parseTimeout(\"\") = %v, %v", d, err)
	}
	if _, err := parseTimeout("soon"); err == nil {
		t.Error("expected error for invalid duration")
	}
}
