package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/blogx/internal/tasks"
)

var (
	_ tea.Msg = progressUpdateMsg{}
	_ tea.Msg = runCompleteMsg{}
)

// progressUpdateMsg carries one [tasks.ProgressUpdate] into the update loop.
type progressUpdateMsg tasks.ProgressUpdate

// runCompleteMsg is sent once the pipeline returns.
type runCompleteMsg struct {
	result *tasks.RunResult
	err    error
}
