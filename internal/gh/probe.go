package gh

import "context"

// Available reports whether `gh --version` runs and exits 0.
// Every failure mode collapses to false.
func Available(ctx context.Context, r Runner) bool {
	res, err := r.Run(ctx, "--version")
	if err != nil || res == nil {
		return false
	}
	return res.ExitCode == 0
}
