package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iannuttall/ralph/internal/gh"
	"github.com/iannuttall/ralph/internal/git"
	"github.com/iannuttall/ralph/internal/output"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that gh is installed and a repo can be detected",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorRun(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func doctorRun(ctx context.Context) error {
	ctx, cancel := withFetchTimeout(ctx)
	defer cancel()

	available := gh.Available(ctx, newRunner())
	fmt.Fprintf(ui.Out, "  %-8s %s\n", "gh", output.AvailabilityColor(available))

	if cwd, err := os.Getwd(); err == nil {
		gc := newGitClient()
		if root, err := gc.RepoRoot(ctx, cwd); err == nil {
			ui.VerboseLog("git repo root: %s", root)
			if repo, err := git.DetectRepo(ctx, gc, root); err == nil {
				fmt.Fprintf(ui.Out, "  %-8s %s\n", "repo", output.Cyan(repo))
			} else {
				fmt.Fprintf(ui.Out, "  %-8s %s\n", "repo", output.Yellow("no GitHub origin remote (pass --repo)"))
			}
		} else {
			fmt.Fprintf(ui.Out, "  %-8s %s\n", "repo", output.Yellow("not a git repository (pass --repo)"))
		}
	}

	if !available {
		return fmt.Errorf("gh CLI not found or not runnable: install it from https://cli.github.com and run 'gh auth login'")
	}
	return nil
}
