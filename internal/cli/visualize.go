package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlehnert/railgraph/pkg/layout"
	"github.com/mlehnert/railgraph/pkg/pipeline"
)

// visualizeCommand creates the visualize command for rendering from a layout.
func (c *CLI) visualizeCommand() *cobra.Command {
	var (
		formatsStr    string
		output        string
		noCache       bool
		verboseLabels bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "visualize [layout.json]",
		Short: "Render a railway map from a computed layout",
		Long: `Render a railway map from a computed layout.

The visualize command takes a layout.json file (produced by 'layout') and
renders it to HTML, SVG, PNG, or PDF. The layout contains all positioning
information, so this step never touches the repository.

Results are cached locally for faster subsequent runs.

Use 'render' as a shortcut to go directly from a repository to visual output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			opts.HideHashes = !verboseLabels
			c.Config.Apply(&opts)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runVisualize(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-render even when cached")

	// Render flags
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): html (default), svg, png, pdf, dot, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.View, "type", "t", "", "visualization type: railway (default), nodelink")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "display scale for the SVG")
	cmd.Flags().StringVar(&opts.Title, "title", "", "page title for HTML output")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show detailed node labels (nodelink)")
	cmd.Flags().BoolVar(&verboseLabels, "verbose-labels", true, "label each stop with its abbreviated hash")

	return cmd
}

// runVisualize loads the layout document and renders it.
func (c *CLI) runVisualize(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	doc, err := layout.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Rendering railway map...")
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, doc, opts)
	if err != nil {
		spinner.StopWithError("Visualization failed")
		return fmt.Errorf("visualize: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		output:    output,
		stem:      stemFromLayoutPath(input),
	})
	if err != nil {
		return err
	}

	printSuccess("Visualization complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(len(doc.Commits), doc.Lanes, cacheHit)
	return nil
}
