package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/blogx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ConfirmView ViewState = iota
	MigrateView
	ResultView
	IssuesView
)

// recentLimit is the number of progress messages kept on screen.
const recentLimit = 8

// Migrator runs the full migration pipeline.
type Migrator interface {
	Run(ctx context.Context, opts tasks.RunOpts, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)
}

// ModelOpts configures a [Model].
type ModelOpts struct {
	Engine Migrator
	Run    tasks.RunOpts
	Source string // Source store URI shown on the confirm view
	Target string // Target store URI shown on the confirm view
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       Migrator
	runOpts      tasks.RunOpts
	source       string
	target       string
	width        int
	height       int
	progressChan chan tasks.ProgressUpdate
	done         chan runCompleteMsg
	progress     tasks.ProgressUpdate
	recent       []string
	result       *tasks.RunResult
	err          error
	issues       list.Model
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	return &Model{
		ctx:     ctx,
		view:    ConfirmView,
		engine:  opts.Engine,
		runOpts: opts.Run,
		source:  opts.Source,
		target:  opts.Target,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init waits for confirmation; nothing runs until the user accepts.
func (m *Model) Init() tea.Cmd {
	return nil
}

// State returns the active view.
func (m *Model) State() ViewState { return m.view }

// Result returns the pipeline result once the run has completed.
func (m *Model) Result() (*tasks.RunResult, error) { return m.result, m.err }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == IssuesView {
			m.issues.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case MigrateView:
			return m.handleMigrateKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case IssuesView:
			return m.handleIssuesKeys(msg)
		}

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		m.recent = append(m.recent, msg.Message)
		if len(m.recent) > recentLimit {
			m.recent = m.recent[len(m.recent)-recentLimit:]
		}
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ConfirmView:
		return m.renderConfirm()
	case MigrateView:
		return m.renderMigrate()
	case ResultView:
		return m.renderResult()
	case IssuesView:
		return m.renderIssues()
	default:
		return ""
	}
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no):
		return m, tea.Quit
	case key.Matches(msg, m.keys.yes):
		m.view = MigrateView
		return m, m.startMigration()
	}
	return m, nil
}

// handleMigrateKeys ignores everything but quit; the run is left to finish its current record.
func (m *Model) handleMigrateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.issues):
		items := issueItems(m.result)
		if len(items) == 0 {
			return m, nil
		}
		m.issues = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.issues.Title = fmt.Sprintf("Issues (%d)", len(items))
		if m.width > 0 {
			m.issues.SetSize(m.width-4, m.height-8)
		}
		m.view = IssuesView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleIssuesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.issues.FilterState() == list.Unfiltered {
			m.view = ResultView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.issues, cmd = m.issues.Update(msg)
	return m, cmd
}

func (m *Model) startMigration() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.done = make(chan runCompleteMsg, 1)

	progress, done := m.progressChan, m.done
	go func() {
		result, err := m.engine.Run(m.ctx, m.runOpts, progress)
		done <- runCompleteMsg{result: result, err: err}
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		if progress == nil {
			return <-done
		}

		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Migrate blog data?")
	backup := "yes"
	if m.runOpts.SkipBackup {
		backup = "skipped"
	}
	info := fmt.Sprintf("\nSource: %s\nTarget: %s\nBackup: %s\n", m.source, m.target, backup)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderMigrate() string {
	title := styles.title.Render("Migrating")

	var phase string
	switch m.progress.Phase {
	case tasks.BackupPhase:
		phase = "Creating backup..."
	case tasks.MigrateCategoriesPhase:
		phase = fmt.Sprintf("Migrating categories (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.MigrateBlogsPhase:
		phase = fmt.Sprintf("Migrating blog posts (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.ValidatePhase:
		phase = "Validating..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, phase, styles.help.Render(strings.Join(m.recent, "\n")))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.issues, m.keys.quit})

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Migration failed: %v", m.err)), helpView)
	}
	if m.result == nil || m.result.Report == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	report := m.result.Report
	title := styles.ok.Render("✓ Migration Complete!")
	info := fmt.Sprintf("\nCategories migrated: %d\nBlogs migrated: %d", report.CategoriesMigrated, report.BlogsMigrated)
	if m.result.BackupPath != "" {
		info += fmt.Sprintf("\nBackup: %s", m.result.BackupPath)
	}

	var status string
	if v := m.result.Validation; v != nil {
		if v.IsValid {
			status = "\n\n" + styles.ok.Render("Validation passed")
		} else {
			status = "\n\n" + styles.err.Render(fmt.Sprintf("Validation failed: %d issue(s)", len(v.Issues)))
		}
	}

	var problems string
	if len(report.Warnings) > 0 || len(report.Errors) > 0 {
		problems = "\n" + styles.warn.Render(fmt.Sprintf("%d warning(s), %d error(s)", len(report.Warnings), len(report.Errors)))
	}

	return fmt.Sprintf("%s\n%s%s%s\n\n%s", title, info, status, problems, helpView)
}

func (m *Model) renderIssues() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.issues.View(), helpView)
}
