package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlehnert/railgraph/pkg/pipeline"
	"github.com/mlehnert/railgraph/pkg/render/nodelink"
)

// exportCommand creates the export command for Graphviz-based node-link output.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output   string
		format   string
		noCache  bool
		detailed bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "export [repo]",
		Short: "Export the commit graph as a Graphviz node-link diagram",
		Long: `Export the commit graph as a Graphviz node-link diagram.

The export command reads the repository and emits the commit DAG in DOT
form, or rasterizes it through Graphviz to SVG or PNG. This view shows raw
parent edges rather than rails and is mainly useful for debugging layouts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RepoPath = repoArg(args)
			c.Config.Apply(&opts)
			if err := validateRepoPath(opts.RepoPath); err != nil {
				return err
			}
			switch format {
			case pipeline.FormatDOT, pipeline.FormatSVG, pipeline.FormatPNG:
			default:
				return fmt.Errorf("invalid format: %q (must be 'dot', 'svg', or 'png')", format)
			}
			return c.runExport(cmd.Context(), opts, output, format, detailed, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <repo>.<format>, or '-' for stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatDOT, "output format: dot (default), svg, png")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include author and date in node labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Remotes, "all", false, "include untracked remote branches")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "raster scale for PNG output")

	return cmd
}

// runExport extracts the repository, computes the layout document, and
// writes the node-link export.
func (c *CLI) runExport(ctx context.Context, opts pipeline.Options, output, format string, detailed, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	logger := loggerFromContext(ctx)
	opts.Logger = logger
	opts.SetRenderDefaults()

	track := newProgress(logger)

	snap, err := runner.Extract(ctx, opts)
	if err != nil {
		return fmt.Errorf("read repository: %w", err)
	}

	doc, err := runner.Layout(ctx, snap, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	dot := nodelink.ToDOT(doc, nodelink.Options{Detailed: detailed})

	var data []byte
	switch format {
	case pipeline.FormatDOT:
		data = []byte(dot)
	case pipeline.FormatSVG:
		data, err = nodelink.RenderSVG(dot)
	case pipeline.FormatPNG:
		data, err = nodelink.RenderPNG(dot, opts.Scale)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	track.done(fmt.Sprintf("Exported %d commits", len(doc.Commits)))
	logger.Debugf("Generated %s: %d bytes", format, len(data))

	outputPath := output
	if outputPath == "" {
		outputPath = repoBase(opts.RepoPath) + "." + format
	}
	if err := writeFile(outputPath, data); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	if outputPath != "-" {
		printSuccess("Export complete")
		printFile(outputPath)
		printStats(len(doc.Commits), doc.Lanes, false)
	}
	return nil
}
