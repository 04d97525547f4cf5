package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynacylabs/airganizer-sub001/internal/cli/hooks"
	"github.com/dynacylabs/airganizer-sub001/pkg/expander"
)

func newTestModel() *Model {
	m := NewModel("test")
	m.width = 80
	m.height = 24
	m.initialized = true
	return &m
}

func update(m *Model, msg tea.Msg) *Model {
	updated, _ := m.Update(msg)
	return updated.(*Model)
}

func TestModel_ItemDiscovered(t *testing.T) {
	m := newTestModel()

	m = update(m, hooks.ItemDiscoveredMsg{Path: "a.zip"})
	m = update(m, hooks.ItemDiscoveredMsg{Path: "b.txt"})
	// Duplicate discovery must not double-count.
	m = update(m, hooks.ItemDiscoveredMsg{Path: "a.zip"})

	assert.Equal(t, 2, m.summary.TotalDiscovered)
	assert.Len(t, m.workItems, 2)
	assert.Equal(t, expander.StatusPending, m.workItems[0].status)
}

func TestModel_StatusTransitions(t *testing.T) {
	m := newTestModel()
	m = update(m, hooks.ItemDiscoveredMsg{Path: "a.zip"})

	m = update(m, hooks.ItemStatusMsg{Path: "a.zip", Status: expander.StatusProcessing})
	assert.Equal(t, "Expanding...", m.phaseMessage)
	assert.Equal(t, 0, m.summary.ExtractedCount)

	m = update(m, hooks.ItemStatusMsg{Path: "a.zip", Status: expander.StatusExtracted, Message: "2 files"})
	assert.Equal(t, 1, m.summary.ExtractedCount)
	assert.Equal(t, expander.StatusExtracted, m.workItems[0].status)

	// A second final status for the same item must not double-count.
	m = update(m, hooks.ItemStatusMsg{Path: "a.zip", Status: expander.StatusExtracted})
	assert.Equal(t, 1, m.summary.ExtractedCount)
}

func TestModel_StatusForUnknownItemAddsIt(t *testing.T) {
	m := newTestModel()
	m = update(m, hooks.ItemStatusMsg{Path: "late.txt", Status: expander.StatusSkipped})

	require.Len(t, m.workItems, 1)
	assert.Equal(t, 1, m.summary.TotalDiscovered)
	assert.Equal(t, 1, m.summary.SkippedCount)
}

func TestModel_RunComplete(t *testing.T) {
	m := newTestModel()
	report := expander.Report{Summary: expander.ReportSummary{
		ArchivesExtracted: 4,
		SkippedCount:      2,
		VanishedCount:     1,
		ErrorCount:        1,
	}}
	m = update(m, hooks.RunCompleteMsg{Report: report})

	assert.True(t, m.done)
	assert.Equal(t, "Complete", m.phaseMessage)
	assert.Equal(t, 4, m.summary.ExtractedCount)
	assert.Equal(t, 2, m.summary.SkippedCount)
	assert.Equal(t, 1, m.summary.VanishedCount)
	assert.Equal(t, 1, m.summary.ErrorCount)
}

func TestModel_QuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		m := newTestModel()
		var msg tea.KeyMsg
		if key == "ctrl+c" {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		updated, cmd := m.Update(msg)
		assert.True(t, updated.(*Model).quitting, "key %q should quit", key)
		require.NotNil(t, cmd, "quit command expected for key %q", key)
	}
}

func TestModel_ViewContainsSummary(t *testing.T) {
	m := newTestModel()
	m = update(m, hooks.ItemDiscoveredMsg{Path: "a.zip"})
	m = update(m, hooks.ItemStatusMsg{Path: "a.zip", Status: expander.StatusExtracted})

	view := m.View()
	assert.Contains(t, view, "unnest test")
	assert.Contains(t, view, "Extracted: 1")
	assert.Contains(t, view, "Discovered: 1")
	assert.Contains(t, view, "q: quit")
}

func TestListItem_Description(t *testing.T) {
	cases := []struct {
		name string
		item listItem
		want string
	}{
		{"Extracted", listItem{path: "a.zip", status: expander.StatusExtracted, message: "3 files", duration: 2 * time.Second}, "3 files (2.00s)"},
		{"Failed", listItem{path: "deep.zip", status: expander.StatusFailed, message: "depth limit"}, "depth limit"},
		{"Vanished", listItem{path: "g.txt", status: expander.StatusVanished}, "vanished"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, tc.item.Description(), tc.want)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "", formatDuration(0))
	assert.Equal(t, "500µs", formatDuration(500*time.Microsecond))
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1.50s", formatDuration(1500*time.Millisecond))
}

func TestIsFinalStatus(t *testing.T) {
	assert.True(t, isFinalStatus(expander.StatusExtracted))
	assert.True(t, isFinalStatus(expander.StatusSkipped))
	assert.True(t, isFinalStatus(expander.StatusVanished))
	assert.True(t, isFinalStatus(expander.StatusFailed))
	assert.False(t, isFinalStatus(expander.StatusPending))
	assert.False(t, isFinalStatus(expander.StatusProcessing))
}
