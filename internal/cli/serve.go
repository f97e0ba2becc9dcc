package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlehnert/railgraph/internal/server"
	"github.com/mlehnert/railgraph/pkg/pipeline"
)

// defaultServeAddr is the default preview server bind address.
const defaultServeAddr = "127.0.0.1:8441"

// serveCommand creates the serve command running the local preview server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "serve [repo]",
		Short: "Preview the railway map in a browser",
		Long: `Preview the railway map in a browser.

The serve command starts a local HTTP server that renders the repository on
demand: the HTML page at /, the raw SVG at /railway.svg, and the layout
document at /layout.json. Reload the page after new commits to see the
updated map; append ?refresh=1 to bypass the cache.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RepoPath = repoArg(args)
			c.Config.Apply(&opts)
			if err := validateRepoPath(opts.RepoPath); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), opts, addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultServeAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Remotes, "all", false, "include untracked remote branches")
	cmd.Flags().StringVar(&opts.TieBreak, "tie-break", "", "rail ownership tie-break: name (default), head")
	cmd.Flags().BoolVar(&opts.GitHubLinks, "gh", false, "link commits and issues to GitHub")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "display scale for the SVG")
	cmd.Flags().StringVar(&opts.Title, "title", "", "page title")

	return cmd
}

// runServe starts the preview server and blocks until the context is cancelled.
func (c *CLI) runServe(ctx context.Context, opts pipeline.Options, addr string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	srv, err := server.New(runner, opts, c.Logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	printSuccess("Preview server listening on %s", addr)
	printNextStep("Open", "http://"+addr+"/")

	return srv.ListenAndServe(ctx, addr)
}
