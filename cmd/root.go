package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iannuttall/ralph/internal/gh"
	"github.com/iannuttall/ralph/internal/git"
	"github.com/iannuttall/ralph/internal/output"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui *output.UI

	verbose bool
	dryRun  bool

	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// Replaceable in tests.
var (
	newRunner    = func() gh.Runner { return gh.NewExecRunner(viper.GetString("gh.binary")) }
	newGitClient = func() git.Client { return git.NewClient() }
)

var rootCmd = &cobra.Command{
	Use:   "ralph",
	Short: "Import GitHub issues as markdown context",
	Long: `ralph pulls issues from a GitHub repository through the gh CLI and
renders them as a markdown block ready to drop into an assistant's context
file, a project brief or a changelog draft.

gh must be installed and authenticated (gh auth login).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// reportError prints err through the UI, or plainly when cobra failed before initializers ran.
func reportError(err error) {
	if ui == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	ui.Error("%v", err)
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/ralph/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDirFunc()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("RALPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func setDefaults() {
	for _, s := range configSettings {
		viper.SetDefault(s.Key, s.Default)
	}
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun
}

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ralph"), nil
}
