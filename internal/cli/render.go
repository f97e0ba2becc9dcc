package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlehnert/railgraph/pkg/pipeline"
)

// renderCommand creates the render command running the full pipeline.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output        string
		formatsStr    string
		noCache       bool
		verboseLabels bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [repo]",
		Short: "Render a repository's history as a railway map",
		Long: `Render a repository's history as a railway map.

The render command reads the repository at the given path (default: the
current directory), reconstructs branch timelines from the reflog, assigns
each commit a rail, and writes the rendered output.

The default output is a self-contained railway.html page; use --format to
request svg, png, pdf, dot, or json instead (comma-separated for several).

Layout and rendered artifacts are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RepoPath = repoArg(args)
			opts.Formats = parseFormats(formatsStr)
			opts.HideHashes = !verboseLabels
			c.Config.Apply(&opts)
			if err := validateRepoPath(opts.RepoPath); err != nil {
				return err
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")

	// Extraction flags
	cmd.Flags().BoolVar(&opts.Remotes, "all", false, "include untracked remote branches")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "timeline reconstruction parallelism (default: GOMAXPROCS)")

	// Layout flags
	cmd.Flags().StringVar(&opts.TieBreak, "tie-break", "", "rail ownership tie-break: name (default), head")
	cmd.Flags().BoolVar(&opts.GitHubLinks, "gh", false, "link commits and issues to GitHub")

	// Render flags
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): html (default), svg, png, pdf, dot, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.View, "type", "t", "", "visualization type: railway (default), nodelink")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "display scale for the SVG")
	cmd.Flags().StringVar(&opts.Title, "title", "", "page title for HTML output")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show detailed node labels (nodelink)")
	cmd.Flags().BoolVar(&verboseLabels, "verbose-labels", true, "label each stop with its abbreviated hash")

	return cmd
}

// runRender executes the full pipeline and writes the rendered artifacts.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", opts.RepoPath))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		output:    output,
		stem:      repoBase(opts.RepoPath),
	})
	if err != nil {
		return err
	}

	printSuccess("Render complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.CommitCount, result.Stats.LaneCount, result.CacheInfo.RenderHit)
	return nil
}
