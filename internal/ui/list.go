package ui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/blogx/internal/tasks"
)

var _ list.Item = issueItem{}

// issueKind labels where an issue came from.
type issueKind string

const (
	kindWarning    issueKind = "warning"
	kindError      issueKind = "error"
	kindValidation issueKind = "validation"
)

// issueItem wraps a report warning, error or validation issue to implement [list.Item].
type issueItem struct {
	kind issueKind
	text string
}

func (i issueItem) FilterValue() string { return i.text }
func (i issueItem) Title() string       { return i.text }
func (i issueItem) Description() string { return string(i.kind) }

// issueItems flattens a run result into list items: errors first, then validation issues, then warnings.
func issueItems(result *tasks.RunResult) []list.Item {
	items := []list.Item{}
	if result == nil {
		return items
	}
	if result.Report != nil {
		for _, e := range result.Report.Errors {
			items = append(items, issueItem{kind: kindError, text: e})
		}
	}
	if result.Validation != nil {
		for _, issue := range result.Validation.Issues {
			items = append(items, issueItem{kind: kindValidation, text: issue})
		}
	}
	if result.Report != nil {
		for _, w := range result.Report.Warnings {
			items = append(items, issueItem{kind: kindWarning, text: w})
		}
	}
	return items
}
