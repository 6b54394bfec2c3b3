package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iannuttall/ralph/internal/contextmd"
	"github.com/iannuttall/ralph/internal/gh"
	"github.com/iannuttall/ralph/internal/git"
	"github.com/iannuttall/ralph/internal/output"
)

var (
	issuesRepo   string
	issuesState  string
	issuesLimit  int
	issuesAppend string
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Import GitHub issues",
	Long:  "Fetch GitHub issues with the gh CLI and render them as markdown context.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var issuesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Render issues as a markdown context block",
	Long: `Fetch issues and print them as a markdown block headed
"## Imported GitHub Issues". With --append (or context.file in config)
the block is appended to that file instead.

Without --repo, the repository is taken from github.repo in config or
from the origin remote of the current directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return issuesImportRun(cmd.Context())
	},
}

var issuesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Preview the issues an import would include",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return issuesListRun(cmd.Context())
	},
}

func init() {
	for _, c := range []*cobra.Command{issuesImportCmd, issuesListCmd} {
		c.Flags().StringVarP(&issuesRepo, "repo", "R", "", "Repository as owner/name")
		c.Flags().StringVar(&issuesState, "state", "", "Issue state: open, closed, all (default from config: open)")
		c.Flags().IntVarP(&issuesLimit, "limit", "L", 0, "Maximum number of issues (default from config: 20)")
	}
	issuesImportCmd.Flags().StringVarP(&issuesAppend, "append", "a", "", "Append the block to this file instead of printing it")

	issuesCmd.AddCommand(issuesImportCmd)
	issuesCmd.AddCommand(issuesListCmd)
	rootCmd.AddCommand(issuesCmd)
}

// userError carries the message shown to the user while keeping the cause for errors.As.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

func issuesImportRun(ctx context.Context) error {
	issues, opts, err := fetchIssues(ctx)
	if err != nil {
		return err
	}

	if ui.Verbose {
		renderIssueTable(ui.ErrTable([]string{"#", "Title", "Labels"}), issues, false)
	}
	block := contextmd.Format(issues)

	target := issuesAppend
	if target == "" {
		target = viper.GetString("context.file")
	}
	if target == "" {
		fmt.Fprint(ui.Out, block)
		return nil
	}

	if dryRun {
		ui.DryRunMsg("Would append %d issues from %s to %s", len(issues), opts.Repo, target)
		fmt.Fprint(ui.Out, block)
		return nil
	}

	if err := appendToFile(target, block); err != nil {
		return err
	}
	ui.Success("Appended %d issues from %s to %s", len(issues), opts.Repo, target)
	return nil
}

func issuesListRun(ctx context.Context) error {
	issues, opts, err := fetchIssues(ctx)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		ui.Info("No %s issues in %s", opts.State, opts.Repo)
		return nil
	}

	renderIssueTable(ui.Table([]string{"#", "Title", "Labels", "URL"}), issues, true)
	return nil
}

// fetchIssues runs the probe, then a single fetch, both bounded by github.timeout.
func fetchIssues(ctx context.Context) ([]gh.Issue, gh.ListOptions, error) {
	opts, err := resolveListOptions(ctx)
	if err != nil {
		return nil, opts, err
	}

	ctx, cancel := withFetchTimeout(ctx)
	defer cancel()

	r := newRunner()
	if !gh.Available(ctx, r) {
		return nil, opts, &userError{
			msg: "gh CLI not found or not runnable: install it from https://cli.github.com and run 'gh auth login'",
		}
	}
	ui.VerboseLog("gh issue list --repo %s --state %s --limit %d", opts.Repo, opts.State, opts.Limit)

	issues, err := gh.FetchIssues(ctx, r, opts)
	if err != nil {
		return nil, opts, &userError{msg: gh.Describe(err), err: err}
	}
	ui.VerboseLog("Fetched %d issues", len(issues))
	return issues, opts, nil
}

// resolveListOptions merges flags over config, falling back to the cwd's origin remote for the repo.
func resolveListOptions(ctx context.Context) (gh.ListOptions, error) {
	opts := gh.ListOptions{
		Repo:  issuesRepo,
		State: issuesState,
		Limit: issuesLimit,
	}
	if opts.Repo == "" {
		opts.Repo = viper.GetString("github.repo")
	}
	if opts.State == "" {
		opts.State = viper.GetString("github.state")
	}
	if opts.Limit == 0 {
		opts.Limit = viper.GetInt("github.limit")
	}

	if opts.Repo == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return opts, fmt.Errorf("get working directory: %w", err)
		}
		repo, err := git.DetectRepo(ctx, newGitClient(), cwd)
		if err != nil {
			return opts, fmt.Errorf("no --repo given and %w", err)
		}
		ui.VerboseLog("Using repo %s from origin remote", repo)
		opts.Repo = repo
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func withFetchTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := viper.GetDuration("github.timeout")
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func renderIssueTable(table *tablewriter.Table, issues []gh.Issue, withURL bool) {
	for _, issue := range issues {
		row := []string{
			strconv.Itoa(issue.Number),
			output.Truncate(issue.Title, 60),
			output.LabelList(issue.LabelNames()),
		}
		if withURL {
			row = append(row, issue.URL)
		}
		_ = table.Append(row)
	}
	_ = table.Render()
}

func appendToFile(path, block string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.WriteString(block); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
