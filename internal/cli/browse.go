package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mlehnert/railgraph/pkg/layout"
	"github.com/mlehnert/railgraph/pkg/pipeline"
)

// browseCommand creates the browse command for interactive history browsing.
func (c *CLI) browseCommand() *cobra.Command {
	var noCache bool
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "browse [repo]",
		Short: "Browse the ordered commit history interactively",
		Long: `Browse the ordered commit history interactively.

The browse command computes the railway layout and opens a terminal list of
the placed commits in visiting order, showing each commit's rail, type, and
the refs pointing at it. Selecting a commit prints its full details.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.RepoPath = repoArg(args)
			c.Config.Apply(&opts)
			if err := validateRepoPath(opts.RepoPath); err != nil {
				return err
			}
			return c.runBrowse(cmd.Context(), opts, noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Remotes, "all", false, "include untracked remote branches")
	cmd.Flags().StringVar(&opts.TieBreak, "tie-break", "", "rail ownership tie-break: name (default), head")

	return cmd
}

// runBrowse computes the layout and drives the commit list TUI.
func (c *CLI) runBrowse(ctx context.Context, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	snap, err := runner.Extract(ctx, opts)
	if err != nil {
		return fmt.Errorf("read repository: %w", err)
	}

	doc, err := runner.Layout(ctx, snap, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}

	if len(doc.Commits) == 0 {
		printInfo("Repository has no commits")
		return nil
	}

	m := NewCommitListModel(doc, time.Now())
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}

	model, ok := final.(CommitListModel)
	if !ok || model.Selected == nil {
		return nil
	}
	printCommit(*model.Selected)
	return nil
}

// printCommit prints the details of a single placed commit.
func printCommit(c layout.Commit) {
	printNewline()
	printKeyValue("Hash", c.Hash)
	printKeyValue("Rail", fmt.Sprintf("%d", c.Rail))
	if c.Ref != "" {
		printKeyValue("Ref", c.Ref)
	}
	if c.Author != "" {
		author := c.Author
		if c.Email != "" {
			author += " <" + c.Email + ">"
		}
		printKeyValue("Author", author)
	}
	printKeyValue("Committed", c.At.Format(time.RFC1123))

	title := c.Title
	if c.Type != "" {
		prefix := c.Type
		if c.Scope != "" {
			prefix += "(" + c.Scope + ")"
		}
		if c.Breaking {
			prefix += "!"
		}
		title = prefix + ": " + title
	}
	printKeyValue("Title", title)
	if c.Body != "" {
		printNewline()
		printDetail("%s", c.Body)
	}
}
