package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/weaver/pkg/domain/run"
	"github.com/felixgeelhaar/weaver/pkg/storage"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI view of the last run",
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("WEAVER_SKIP_DASHBOARD_RUN") == "true" {
			return nil
		}
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		p := tea.NewProgram(initialModel(root))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard run failed: %w", err)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(dashboardCmd)
}

// Styles
var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

var sevOK = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
var sevErr = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

type model struct {
	table      table.Model
	bar        progress.Model
	repository string
	outcome    *run.Outcome
	err        error
}

func initialModel(root string) model {
	repo := storage.NewFilesystemRepository(root)

	cfg, err := repo.LoadConfig()
	if err != nil {
		return model{err: err}
	}
	outcome, err := repo.LoadOutcome()
	if err != nil {
		return model{err: err}
	}

	columns := []table.Column{
		{Title: "Time", Width: 10},
		{Title: "Severity", Width: 8},
		{Title: "Message", Width: 60},
	}

	rows := []table.Row{}
	for _, entry := range outcome.Entries {
		rows = append(rows, table.Row{
			entry.Timestamp.Format("15:04:05"),
			string(entry.Severity),
			entry.Message,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))
	t.SetStyles(s)

	return model{
		table:      t,
		bar:        progress.New(progress.WithDefaultGradient()),
		repository: cfg.Username + "/" + cfg.Repository,
		outcome:    outcome,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error loading dashboard: %v\nPress q to quit.", m.err)
	}

	header := headerStyle.Render(fmt.Sprintf("%s  run %s", m.repository, m.outcome.RunID))

	ratio := 0.0
	if attempted := m.outcome.Attempted(); attempted > 0 {
		ratio = float64(m.outcome.Succeeded) / float64(attempted)
	}

	summary := sevOK.Render(fmt.Sprintf("%d succeeded", m.outcome.Succeeded))
	if m.outcome.Failed > 0 {
		summary += "  " + sevErr.Render(fmt.Sprintf("%d failed", m.outcome.Failed))
	}

	return baseStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			summary,
			m.bar.ViewAs(ratio),
			"\nRun log:",
			m.table.View(),
			"\n[q] Quit  [Up/Down] Navigate",
		),
	) + "\n"
}
