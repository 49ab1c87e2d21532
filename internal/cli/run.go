package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/futureCreator/docgen/internal/assets"
	"github.com/futureCreator/docgen/internal/config"
	"github.com/futureCreator/docgen/internal/executor"
	"github.com/futureCreator/docgen/internal/generator"
	vlog "github.com/futureCreator/docgen/internal/log"
	"github.com/futureCreator/docgen/internal/pipeline"
	"github.com/futureCreator/docgen/internal/project"
	"github.com/futureCreator/docgen/internal/run"
	"github.com/futureCreator/docgen/internal/secret"
	"github.com/futureCreator/docgen/internal/source"
	"github.com/futureCreator/docgen/internal/store"
	"github.com/futureCreator/docgen/internal/throttle"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// dotEnvFile is read from the working directory before config is resolved.
const dotEnvFile = ".env"

var (
	runTopics  string
	runVerbose bool
)

var runCmd = &cobra.Command{
	Use:          "run",
	Short:        "Generate a document and issue list for every topic",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context(), runTopics, runVerbose)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runTopics, "topics", "t", "", "Topic file (overrides topics_file)")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Debug logging and plain progress lines")
}

// runPipeline wires config, executor, store and throttle into an engine and
// runs it to completion.
func runPipeline(ctx context.Context, topicsFlag string, verbose bool) error {
	if err := loadDotEnv(dotEnvFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if topicsFlag != "" {
		cfg.TopicsFile = topicsFlag
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var logger *slog.Logger
	if logFile := openLogFile(); logFile != nil {
		defer logFile.Close()
		logger = vlog.New(cfg.LogLevel, logFile)
	} else {
		logger = vlog.New(cfg.LogLevel, nil)
	}

	src, err := loadTopics(cfg.TopicsFile)
	if err != nil {
		return fmt.Errorf("loading topics: %w", err)
	}

	exec, err := buildExecutor(ctx, cfg, logger)
	if err != nil {
		return err
	}

	prompt, err := assets.LoadPrompt("document")
	if err != nil {
		return fmt.Errorf("loading prompt: %w", err)
	}
	gen, err := generator.New(exec, cfg.Model, prompt, logger)
	if err != nil {
		return err
	}

	sink, err := store.OpenSink(ctx, cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("opening output %q: %w", cfg.OutputDir, err)
	}
	naming, err := store.NamingFor(cfg.Naming)
	if err != nil {
		return err
	}

	gitInfo, err := project.CollectGitInfo(".")
	if err != nil {
		logger.Warn("could not collect git info", "err", err)
		if gitInfo == nil {
			gitInfo = &project.GitInfo{}
		}
	}

	engine := &pipeline.Engine{
		Generator:    gen,
		Store:        store.New(sink, naming, logger),
		Throttle:     throttle.NewFixed(cfg.Delay()),
		Source:       src,
		MaxDocuments: cfg.MaxDocuments,
		Display:      pipeline.NewDisplay(src.Name(), verbose),
		Logger:       logger,
	}

	r, err := run.New(filepath.Join(config.Dir, "runs"), src.Slug(), run.Meta{
		Model:     cfg.Model,
		Source:    src.Name(),
		OutputDir: cfg.OutputDir,
		Limit:     engine.Limit(),
		GitBranch: gitInfo.Branch,
		GitCommit: gitInfo.Commit,
		GitDirty:  gitInfo.IsDirty,
	})
	if err != nil {
		logger.Warn("could not create run record", "err", err)
	} else {
		engine.Recorder = r
	}

	logger.Info("starting run", "model", cfg.Model, "topics", src.Len(), "limit", engine.Limit(),
		"output", cfg.OutputDir, "delay", cfg.Delay())
	_, err = engine.Run(ctx)
	return err
}

// loadDotEnv exports KEY=VALUE pairs from path. Variables already set in the
// environment win; a missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func loadTopics(path string) (*source.Topics, error) {
	if path == "" {
		return source.Default()
	}
	return source.LoadFile(path)
}

// buildExecutor returns the completion backend named by cfg.Executor. For
// the api executor the key comes from Secrets Manager when a secret id is
// configured, otherwise from the environment.
func buildExecutor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (executor.Executor, error) {
	switch cfg.Executor {
	case config.ExecutorClaudeCode:
		return &executor.ClaudeCodeExecutor{Config: cfg}, nil
	case config.ExecutorAPI:
		key, err := resolveAPIKey(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &executor.APIExecutor{Config: cfg, APIKey: key, Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown executor %q", cfg.Executor)
	}
}

func resolveAPIKey(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.Provider.APIKeySecret == "" {
		key := cfg.APIKey()
		if key == "" {
			return "", fmt.Errorf("API key not set: export %s or set provider.api_key_secret", apiKeyEnv(cfg))
		}
		return key, nil
	}
	resolver, err := secret.NewResolver(ctx)
	if err != nil {
		return "", err
	}
	return resolver.APIKey(ctx, cfg.Provider.APIKeySecret)
}

func apiKeyEnv(cfg *config.Config) string {
	if cfg.Provider.APIKeyEnv == "" {
		return "GEMINI_API_KEY"
	}
	return cfg.Provider.APIKeyEnv
}

func openLogFile() *os.File {
	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(config.Dir, "docgen.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	return f
}
