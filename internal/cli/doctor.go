package cli

import (
	"fmt"
	"os/exec"

	"github.com/futureCreator/docgen/internal/config"
	"github.com/futureCreator/docgen/internal/project"
	"github.com/futureCreator/docgen/internal/store"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check docgen prerequisites and configuration",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	allOK := true

	check := func(label string, ok bool, hint string) {
		if ok {
			fmt.Printf("✅ %s\n", label)
		} else {
			fmt.Printf("❌ %s — %s\n", label, hint)
			allOK = false
		}
	}

	envErr := loadDotEnv(dotEnvFile)
	check(dotEnvFile+" readable (if present)", envErr == nil, fmt.Sprintf("%v", envErr))

	cfg, cfgErr := config.Load()
	check("config loadable", cfgErr == nil, fmt.Sprintf("fix config: %v", cfgErr))
	if cfgErr == nil {
		validateErr := cfg.Validate()
		check("config valid", validateErr == nil, fmt.Sprintf("%v", validateErr))

		switch cfg.Executor {
		case config.ExecutorClaudeCode:
			name := cfg.ClaudeCode.Command
			if name == "" {
				name = "claude"
			}
			_, err := exec.LookPath(name)
			check(name+" CLI installed", err == nil, "install claude: https://claude.ai/claude-code")
		case config.ExecutorAPI:
			if cfg.Provider.APIKeySecret != "" {
				_, err := resolveAPIKey(cmd.Context(), cfg)
				check("API key readable from Secrets Manager", err == nil, fmt.Sprintf("%v", err))
			} else {
				env := apiKeyEnv(cfg)
				check(env+" set", cfg.APIKey() != "", "set environment variable "+env)
			}
		}

		_, topicsErr := loadTopics(cfg.TopicsFile)
		check("topics loadable", topicsErr == nil, fmt.Sprintf("%v", topicsErr))

		_, sinkErr := store.OpenSink(cmd.Context(), cfg.OutputDir)
		check("output "+cfg.OutputDir+" reachable", sinkErr == nil, fmt.Sprintf("%v", sinkErr))
	}

	// informational only
	if info, err := project.CollectGitInfo("."); err == nil {
		state := "clean"
		if info.IsDirty {
			state = "dirty"
		}
		fmt.Printf("ℹ️  git %s@%s (%s)\n", info.Branch, info.Commit, state)
	}

	fmt.Println()
	if allOK {
		fmt.Println("All checks passed. docgen is ready.")
	} else {
		fmt.Println("Some checks failed. Fix the issues above before running docgen.")
	}
	return nil
}
