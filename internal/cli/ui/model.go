package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dynacylabs/airganizer-sub001/internal/cli/hooks"
	"github.com/dynacylabs/airganizer-sub001/pkg/expander"
)

const listHeightMargin = 4 // header + footer + padding

// Model represents the state of the TUI application. It holds UI components
// (list, spinner), layout dimensions, aggregated summary statistics, and the
// list of work items. The queue grows while it drains, so items keep
// appearing for the whole run, not just during an initial scan phase.
type Model struct {
	list        list.Model
	spinner     spinner.Model
	width       int
	height      int
	initialized bool
	appVersion  string
	// workItems holds the internal data for each item displayed in the list.
	// Access MUST be protected by listLock; hook messages arrive from the
	// engine goroutine.
	workItems []listItem
	// itemMap maps item paths to their index in workItems.
	itemMap map[string]int
	summary Summary
	// phaseMessage displays the current overall stage (Scanning, Expanding, ...).
	phaseMessage string
	quitting     bool
	done         bool
	// processTime maps item paths to their processing start time.
	processTime   map[string]time.Time
	listLock      sync.Mutex
	debounceTimer *time.Timer
}

// listItem represents a single work item in the TUI list.
type listItem struct {
	path     string
	status   expander.Status
	message  string
	duration time.Duration
}

// Summary holds the aggregated statistics displayed in the TUI footer.
type Summary struct {
	TotalDiscovered int
	ExtractedCount  int
	SkippedCount    int
	VanishedCount   int
	ErrorCount      int
	StartTime       time.Time
}

// NewModel creates the initial model for the TUI.
func NewModel(appVersion string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	delegate.ShowDescription = true
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorSelectedFg).
		Background(ColorSelectedBg).
		Bold(true).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorSelectedDescFg).
		Background(ColorSelectedBg).
		Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.
		Foreground(ColorNormalFg).Padding(0, 0, 0, 1)
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.
		Foreground(ColorNormalDescFg).Padding(0, 0, 0, 1)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return Model{
		list:         l,
		spinner:      s,
		appVersion:   appVersion,
		summary:      Summary{StartTime: time.Now()},
		phaseMessage: "Scanning...",
		workItems:    make([]listItem, 0, 1000),
		itemMap:      make(map[string]int),
		processTime:  make(map[string]time.Time),
	}
}

// Init initializes the TUI model and starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles incoming messages (user input, hook events) and updates the
// model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var listCmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := m.height - listHeightMargin
		if listHeight < 1 {
			listHeight = 1
		}
		m.list.SetSize(m.width, listHeight)
		m.initialized = true

	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
		m.list, listCmd = m.list.Update(msg)
		cmds = append(cmds, listCmd)

	case spinner.TickMsg:
		if m.quitting || m.done {
			return m, nil
		}
		var spinnerCmd tea.Cmd
		m.spinner, spinnerCmd = m.spinner.Update(msg)
		cmds = append(cmds, spinnerCmd)

	case hooks.ItemDiscoveredMsg:
		m.listLock.Lock()
		if _, exists := m.itemMap[msg.Path]; !exists {
			newItem := listItem{path: msg.Path, status: expander.StatusPending}
			m.workItems = append(m.workItems, newItem)
			m.itemMap[msg.Path] = len(m.workItems) - 1
			m.summary.TotalDiscovered++
			cmds = append(cmds, m.debounceListUpdate())
		}
		m.listLock.Unlock()

	case hooks.ItemStatusMsg:
		m.listLock.Lock()
		if idx, ok := m.itemMap[msg.Path]; ok && idx < len(m.workItems) {
			currentItem := &m.workItems[idx]

			if isFinalStatus(msg.Status) && currentItem.status == expander.StatusProcessing {
				if startTime, found := m.processTime[msg.Path]; found {
					currentItem.duration = time.Since(startTime)
					delete(m.processTime, msg.Path)
				}
			} else if msg.Status == expander.StatusProcessing {
				m.processTime[msg.Path] = time.Now()
				currentItem.duration = 0
			}

			if isFinalStatus(msg.Status) && !isFinalStatus(currentItem.status) {
				m.incrementSummaryCount(msg.Status)
			}
			currentItem.status = msg.Status
			currentItem.message = msg.Message
			cmds = append(cmds, m.debounceListUpdate())
		} else {
			// Status for an unknown item: the discovery message was missed
			// or delayed. Add it so the list stays complete.
			newItem := listItem{path: msg.Path, status: msg.Status, message: msg.Message, duration: msg.Duration}
			m.workItems = append(m.workItems, newItem)
			m.itemMap[msg.Path] = len(m.workItems) - 1
			m.summary.TotalDiscovered++
			if isFinalStatus(msg.Status) {
				m.incrementSummaryCount(msg.Status)
			}
			cmds = append(cmds, m.debounceListUpdate())
		}
		m.listLock.Unlock()

		if !m.quitting && !m.done && m.phaseMessage != "Expanding..." && msg.Status == expander.StatusProcessing {
			m.phaseMessage = "Expanding..."
		}

	case hooks.RunCompleteMsg:
		m.done = true
		m.phaseMessage = "Complete"
		// Replace incremental counts with the verified report counts.
		m.summary.ExtractedCount = msg.Report.Summary.ArchivesExtracted
		m.summary.SkippedCount = msg.Report.Summary.SkippedCount
		m.summary.VanishedCount = msg.Report.Summary.VanishedCount
		m.summary.ErrorCount = msg.Report.Summary.ErrorCount

	case UpdateListMsg:
		m.listLock.Lock()
		items := make([]list.Item, len(m.workItems))
		for i, item := range m.workItems {
			items[i] = item
		}
		m.listLock.Unlock()
		cmds = append(cmds, m.list.SetItems(items))
	}

	if listCmd != nil {
		cmds = append(cmds, listCmd)
	}
	return m, tea.Batch(cmds...)
}

// View renders the current state of the TUI model to a string.
func (m *Model) View() string {
	if m.quitting {
		return "Exiting...\n"
	}
	if !m.initialized {
		return "Initializing..."
	}

	headerLeft := fmt.Sprintf("unnest %s", m.appVersion)
	headerRight := m.phaseMessage
	if !m.done {
		headerRight = m.spinner.View() + " " + m.phaseMessage
	}
	headerCenter := ""
	headerWidth := m.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerWidth > 0 {
		headerCenter = lipgloss.PlaceHorizontal(headerWidth, lipgloss.Center, " ")
	}
	header := HeaderStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, headerLeft, headerCenter, headerRight))

	elapsed := time.Since(m.summary.StartTime).Round(time.Millisecond)
	summaryText := fmt.Sprintf(
		"Extracted: %d | Skipped: %d | Vanished: %d | Errors: %d | Discovered: %d | Elapsed: %s",
		m.summary.ExtractedCount,
		m.summary.SkippedCount,
		m.summary.VanishedCount,
		m.summary.ErrorCount,
		m.summary.TotalDiscovered,
		elapsed,
	)
	footerLeft := summaryText
	footerRight := "q: quit"
	footerWidth := m.width - lipgloss.Width(footerLeft) - lipgloss.Width(footerRight)
	footerCenter := ""
	if footerWidth > 0 {
		footerCenter = lipgloss.PlaceHorizontal(footerWidth, lipgloss.Center, " ")
	}
	footer := FooterStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, footerLeft, footerCenter, footerRight))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.list.View(),
		footer,
	)
}

// isFinalStatus checks if a status represents a terminal state for an item.
func isFinalStatus(status expander.Status) bool {
	return status == expander.StatusExtracted ||
		status == expander.StatusFailed ||
		status == expander.StatusSkipped ||
		status == expander.StatusVanished
}

// incrementSummaryCount updates summary counts based on the new final
// status. MUST be called with listLock held.
func (m *Model) incrementSummaryCount(status expander.Status) {
	switch status {
	case expander.StatusExtracted:
		m.summary.ExtractedCount++
	case expander.StatusSkipped:
		m.summary.SkippedCount++
	case expander.StatusVanished:
		m.summary.VanishedCount++
	case expander.StatusFailed:
		m.summary.ErrorCount++
	}
}

// --- List Item Interface ---

// FilterValue implements the list.Item interface.
func (i listItem) FilterValue() string { return i.path }

// Title implements the list.Item interface.
func (i listItem) Title() string { return i.path }

// Description implements the list.Item interface.
func (i listItem) Description() string {
	var statusStyle lipgloss.Style
	statusIcon := " "
	switch i.status {
	case expander.StatusExtracted:
		statusStyle = StatusStyleExtracted
		statusIcon = "✓"
	case expander.StatusFailed:
		statusStyle = StatusStyleFailed
		statusIcon = "✗"
	case expander.StatusSkipped:
		statusStyle = StatusStyleSkipped
		statusIcon = "-"
	case expander.StatusVanished:
		statusStyle = StatusStyleVanished
		statusIcon = "~"
	case expander.StatusProcessing:
		statusStyle = StatusStyleProcessing
		statusIcon = "…"
	case expander.StatusPending:
		fallthrough
	default:
		statusStyle = StatusStylePending
		statusIcon = " "
	}

	statusStr := statusStyle.Render(fmt.Sprintf("[%s]", statusIcon))
	details := ""
	switch i.status {
	case expander.StatusFailed:
		details = i.message
	case expander.StatusExtracted:
		details = i.message
		if i.duration > 0 {
			details = fmt.Sprintf("%s (%s)", i.message, formatDuration(i.duration))
		}
	case expander.StatusVanished:
		details = "vanished"
	}
	return fmt.Sprintf("%s %s", statusStr, details)
}

// formatDuration formats duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		if d == 0 {
			return ""
		}
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// --- Update Debouncing ---

// UpdateListMsg signals that the list component should refresh its items.
type UpdateListMsg struct{}

const listUpdateDebounceDuration = 50 * time.Millisecond

// debounceListUpdate sends a message to trigger a list update after a short
// delay, preventing excessive renders during rapid status changes. MUST be
// called with listLock held.
func (m *Model) debounceListUpdate() tea.Cmd {
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceTimer = time.NewTimer(listUpdateDebounceDuration)
	return func() tea.Msg {
		<-m.debounceTimer.C
		return UpdateListMsg{}
	}
}

// --- Styles ---

const (
	ColorHeaderFg = lipgloss.Color("252")
	ColorHeaderBg = lipgloss.Color("62")

	ColorFooterFg = lipgloss.Color("252")
	ColorFooterBg = lipgloss.Color("56")

	ColorNormalFg     = lipgloss.Color("250")
	ColorNormalDescFg = lipgloss.Color("244")

	ColorSelectedFg     = lipgloss.Color("255")
	ColorSelectedBg     = lipgloss.Color("56")
	ColorSelectedDescFg = lipgloss.Color("248")

	ColorStatusExtracted  = lipgloss.Color("40")
	ColorStatusFailed     = lipgloss.Color("196")
	ColorStatusSkipped    = lipgloss.Color("244")
	ColorStatusVanished   = lipgloss.Color("214")
	ColorStatusPending    = lipgloss.Color("244")
	ColorStatusProcessing = lipgloss.Color("205")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHeaderFg).
			Background(ColorHeaderBg).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorFooterFg).
			Background(ColorFooterBg).
			Padding(0, 1)

	StatusStyleExtracted  = lipgloss.NewStyle().Foreground(ColorStatusExtracted)
	StatusStyleFailed     = lipgloss.NewStyle().Foreground(ColorStatusFailed)
	StatusStyleSkipped    = lipgloss.NewStyle().Foreground(ColorStatusSkipped)
	StatusStyleVanished   = lipgloss.NewStyle().Foreground(ColorStatusVanished)
	StatusStylePending    = lipgloss.NewStyle().Foreground(ColorStatusPending)
	StatusStyleProcessing = lipgloss.NewStyle().Foreground(ColorStatusProcessing)
)
