package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/futureCreator/docgen/internal/assets"
	"github.com/futureCreator/docgen/internal/config"
	"github.com/spf13/cobra"
)

var (
	initProject bool
	initForce   bool
)

// userConfigPath is swapped in tests.
var userConfigPath = config.UserConfigPath

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented docgen configuration file",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initProject, "project", false, "Write .docgen/config.yaml in the current directory instead of the user config")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := userConfigPath()
	if initProject {
		configPath = config.ProjectConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil && !initForce {
		fmt.Printf("Config already exists: %s\n", configPath)
		return nil
	}

	content, err := assets.LoadTemplate("config.yaml")
	if err != nil {
		return fmt.Errorf("loading config template: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("Edit the file to choose the model, output location and pacing.")
	fmt.Println("Set GEMINI_API_KEY (or provider.api_key_env) for API access.")
	return nil
}
