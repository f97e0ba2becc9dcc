package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlehnert/railgraph/pkg/layout"
	"github.com/mlehnert/railgraph/pkg/pipeline"
)

// layoutCommand creates the layout command for computing rail layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [repo]",
		Short: "Compute a railway layout without rendering it",
		Long: `Compute a railway layout without rendering it.

The layout command reads the repository, orders its commits, assigns rails,
and writes the resulting layout document as JSON. The document can later be
rendered with 'visualize' without touching the repository again.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RepoPath = repoArg(args)
			c.Config.Apply(&opts)
			if err := validateRepoPath(opts.RepoPath); err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <repo>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")

	// Extraction and layout flags
	cmd.Flags().BoolVar(&opts.Remotes, "all", false, "include untracked remote branches")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "timeline reconstruction parallelism (default: GOMAXPROCS)")
	cmd.Flags().StringVar(&opts.TieBreak, "tie-break", "", "rail ownership tie-break: name (default), head")
	cmd.Flags().BoolVar(&opts.GitHubLinks, "gh", false, "link commits and issues to GitHub")

	return cmd
}

// runLayout extracts the repository state, computes the layout, and writes
// the layout document.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Computing railway layout...")
	spinner.Start()

	snap, err := runner.Extract(ctx, opts)
	if err != nil {
		spinner.StopWithError("Extraction failed")
		return fmt.Errorf("read repository: %w", err)
	}

	doc, cacheHit, err := runner.LayoutWithCacheInfo(ctx, snap, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = repoBase(opts.RepoPath) + ".layout.json"
	}

	if err := layout.WriteFile(doc, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(doc.Commits), doc.Lanes, cacheHit)
	printNewline()
	printNextStep("Render", "railgraph visualize "+outputPath)

	return nil
}
