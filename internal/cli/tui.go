package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mlehnert/railgraph/pkg/history"
	"github.com/mlehnert/railgraph/pkg/layout"
)

// List styles
var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// CommitListModel - Interactive commit browsing
// =============================================================================

// CommitListModel is the bubbletea model for browsing placed commits.
// Commits appear in visiting order, one row per stop, with the rail the
// commit was assigned to.
type CommitListModel struct {
	Doc      layout.Document
	Now      time.Time
	Cursor   int
	Selected *layout.Commit
	Height   int
	Offset   int
}

// NewCommitListModel creates a new commit list model over a layout document.
func NewCommitListModel(doc layout.Document, now time.Time) CommitListModel {
	return CommitListModel{
		Doc:    doc,
		Now:    now,
		Cursor: 0,
		Height: 15,
		Offset: 0,
	}
}

func (m CommitListModel) Init() tea.Cmd {
	return nil
}

func (m CommitListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Doc.Commits)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "g":
			m.Cursor = 0
			m.Offset = 0
		case "G":
			m.Cursor = len(m.Doc.Commits) - 1
			if m.Cursor >= m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		case "enter":
			commit := m.Doc.Commits[m.Cursor]
			m.Selected = &commit
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m CommitListModel) View() string {
	var b strings.Builder

	title := "Browse Commits"
	if m.Doc.Repo != "" {
		title = "Browse " + m.Doc.Repo
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ inspect  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Doc.Commits) {
		end = len(m.Doc.Commits)
	}

	refByHash := labelIndex(m.Doc.Refs)
	tagByHash := labelIndex(m.Doc.Tags)

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		c := m.Doc.Commits[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		var marks []string
		if names := refByHash[c.Hash]; len(names) > 0 {
			marks = append(marks, names...)
		}
		if names := tagByHash[c.Hash]; len(names) > 0 {
			marks = append(marks, names...)
		}
		markStr := strings.Join(marks, ", ")

		kind := c.Type
		if c.Merge {
			kind = "merge"
		}
		if kind == "" {
			kind = "—"
		}

		when := history.RelativeTime(c.At, m.Now)
		if when == "" {
			when = c.At.Format("Jan 2, 2006")
		}

		rows = append(rows, []string{cursor, c.Short, fmt.Sprintf("%d", c.Rail), kind, truncate(c.Title, 48), when, markStr})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Hash", "Rail", "Type", "Title", "Committed", "Refs").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Doc.Commits) {
				return lipgloss.NewStyle()
			}
			c := m.Doc.Commits[actualIdx]
			isCurrent := actualIdx == m.Cursor

			base := lipgloss.NewStyle()
			if col == 5 {
				base = base.Foreground(colorDim)
			}

			if isCurrent {
				if col == 1 || col == 4 {
					return base.Foreground(colorCyan).Bold(true)
				}
				return base.Bold(true)
			}
			if c.Merge && col == 3 {
				return base.Foreground(colorYellow)
			}
			if col == 6 {
				return base.Foreground(colorGreen)
			}
			return base.Foreground(colorGray)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Doc.Commits))))

	return b.String()
}

// labelIndex groups label names by the commit hash they point at.
func labelIndex(labels []layout.Label) map[string][]string {
	if len(labels) == 0 {
		return nil
	}
	idx := make(map[string][]string, len(labels))
	for _, l := range labels {
		idx[l.Hash] = append(idx[l.Hash], l.Name)
	}
	return idx
}

// truncate shortens s to at most n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
