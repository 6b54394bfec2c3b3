package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/iannuttall/ralph/internal/gh"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage ralph configuration.

Running bare 'ralph config' is the same as 'ralph config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configSetting is one key ralph reads through viper.
type configSetting struct {
	Key     string
	Default any
	Comment string
}

var configSettings = []configSetting{
	{"github.repo", "", "Repository to import from as owner/name (default: origin remote of the cwd)"},
	{"github.state", gh.StateOpen, "Issue state: open, closed, all"},
	{"github.limit", 20, "Maximum number of issues to fetch"},
	{"github.timeout", "30s", "Upper bound for the gh probe and fetch together"},
	{"gh.binary", gh.DefaultBinary, "gh executable name or path"},
	{"context.file", "", "File the imported block is appended to (default: print to stdout)"},
}

var configSections = map[string]string{
	"github":  "GitHub issue import",
	"gh":      "gh CLI",
	"context": "Context document",
}

// envVarFor maps a dotted key to the variable AutomaticEnv binds it to.
func envVarFor(key string) string {
	return "RALPH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// renderConfig encodes the effective settings as a commented YAML document.
func renderConfig() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	doc := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: "# ralph configuration\n# See: ralph config show (for effective values and sources)",
		Content:     []*yaml.Node{root},
	}

	sections := make(map[string]*yaml.Node)
	for _, s := range configSettings {
		section, name, _ := strings.Cut(s.Key, ".")
		m, ok := sections[section]
		if !ok {
			m = &yaml.Node{Kind: yaml.MappingNode}
			sections[section] = m
			root.Content = append(root.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: section, HeadComment: "# " + configSections[section]},
				m)
		}
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name, HeadComment: "# " + s.Comment},
			settingNode(s))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func settingNode(s configSetting) *yaml.Node {
	if _, ok := s.Default.(int); ok {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(viper.GetInt(s.Key))}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: viper.GetString(s.Key)}
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	data, err := renderConfig()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprint(ui.Out, string(data))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprint(ui.Out, string(data))
	return nil
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}

	inFile := fileKeys(cfgPath)
	table := ui.Table([]string{"Key", "Value", "Source"})
	for _, s := range configSettings {
		_ = table.Append([]string{s.Key, viper.GetString(s.Key), detectSource(s.Key, inFile)})
	}
	_ = table.Render()

	for _, problem := range checkImportSettings() {
		ui.Warning("%s", problem)
	}
	return nil
}

// checkImportSettings reports settings an import would reject or ignore.
func checkImportSettings() []string {
	var problems []string

	opts := gh.ListOptions{
		Repo:  viper.GetString("github.repo"),
		State: viper.GetString("github.state"),
		Limit: viper.GetInt("github.limit"),
	}
	if opts.Repo == "" {
		opts.Repo = "owner/name"
	}
	if err := opts.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if raw := viper.GetString("github.timeout"); raw != "" {
		if _, err := time.ParseDuration(raw); err != nil {
			problems = append(problems, fmt.Sprintf("github.timeout %q is not a duration; imports run without a timeout", raw))
		}
	}
	return problems
}

// fileKeys returns the dotted keys set in the YAML file at path.
func fileKeys(path string) map[string]bool {
	keys := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return keys
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil || len(doc.Content) == 0 {
		return keys
	}
	collectKeys("", doc.Content[0], keys)
	return keys
}

func collectKeys(prefix string, n *yaml.Node, keys map[string]bool) {
	if n.Kind != yaml.MappingNode {
		if prefix != "" {
			keys[prefix] = true
		}
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if prefix != "" {
			key = prefix + "." + key
		}
		collectKeys(key, n.Content[i+1], keys)
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key string, inFile map[string]bool) string {
	if envVar := envVarFor(key); os.Getenv(envVar) != "" {
		return "env: " + envVar
	}
	if inFile[key] {
		return "file"
	}
	return "default"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set: set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'ralph config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
