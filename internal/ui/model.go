// Package ui implements the interactive mode: inspect the port's
// listeners, confirm, then watch the kill and stop steps run.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dnlvgl/sweep/internal/container"
	"github.com/dnlvgl/sweep/internal/kill"
	"github.com/dnlvgl/sweep/internal/port"
	"github.com/dnlvgl/sweep/internal/process"
	"github.com/dnlvgl/sweep/internal/sweep"
)

type state int

const (
	stateLoading state = iota
	stateList
	stateConfirm
	stateWorking
	stateResult
)

type listenerItem struct {
	listener port.Listener
	context  process.Context
}

// Model is the Bubble Tea model for the interactive sweep.
type Model struct {
	state    state
	query    port.Query
	detector sweep.Detector
	killer   sweep.Killer
	stopper  sweep.Stopper
	skipStop bool
	graceful bool

	items    []listenerItem
	cursor   int
	message  string
	isError  bool
	failed   bool
	width    int
	height   int
	quitting bool
}

// New creates the interactive model.
func New(query port.Query, detector sweep.Detector, killer sweep.Killer, stopper sweep.Stopper, skipStop, graceful bool) Model {
	return Model{
		state:    stateLoading,
		query:    query,
		detector: detector,
		killer:   killer,
		stopper:  stopper,
		skipStop: skipStop,
		graceful: graceful,
	}
}

// Failed reports whether the run ended in an error, for exit-status
// mapping after the program returns.
func (m Model) Failed() bool { return m.failed }

// Messages

type loadedMsg struct {
	items []listenerItem
	err   error
}

type doneMsg struct {
	report string
	err    error
}

// Commands

func loadListeners(detector sweep.Detector, q port.Query) tea.Cmd {
	return func() tea.Msg {
		listeners, err := detector.Detect(q)
		if err != nil {
			return loadedMsg{err: err}
		}

		seen := make(map[int]bool)
		var items []listenerItem
		for _, l := range listeners {
			if seen[l.PID] {
				continue
			}
			seen[l.PID] = true

			ctx, err := process.GatherContext(l.PID, l.Port)
			if err != nil {
				ctx = process.Context{Info: process.Info{PID: l.PID, Command: l.Name}}
			}
			items = append(items, listenerItem{listener: l, context: ctx})
		}

		return loadedMsg{items: items}
	}
}

func (m Model) executeSweep() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		var reports []string
		for _, item := range m.items {
			desc, err := m.killer.Kill(ctx, item.listener)
			if err != nil {
				return doneMsg{err: fmt.Errorf("killing PID %d: %w", item.listener.PID, err)}
			}
			reports = append(reports, desc)
		}

		if !m.skipStop {
			if err := m.stopper.Run(ctx); err != nil {
				return doneMsg{err: fmt.Errorf("stop script: %w", err)}
			}
			reports = append(reports, m.stopper.Describe())
		}

		return doneMsg{report: strings.Join(reports, ", ")}
	}
}

// Init starts the initial loading.
func (m Model) Init() tea.Cmd {
	return loadListeners(m.detector, m.query)
}

// Update handles events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case loadedMsg:
		if msg.err != nil {
			m.state = stateResult
			m.message = msg.err.Error()
			m.isError = true
			m.failed = true
			return m, nil
		}
		if len(msg.items) == 0 {
			if m.skipStop {
				// Free port and no stop step: nothing left to confirm.
				m.state = stateResult
				m.message = fmt.Sprintf("port %d is free, nothing to do", m.query.Port)
				return m, nil
			}
			// Nothing to kill; go straight to the confirm so the stop
			// step is still offered.
			m.items = nil
			m.state = stateConfirm
			return m, nil
		}
		m.items = msg.items
		m.state = stateList
		return m, nil

	case doneMsg:
		m.state = stateResult
		if msg.err != nil {
			m.message = msg.err.Error()
			m.isError = true
			m.failed = true
		} else {
			m.message = "Done: " + msg.report
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateList:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "up", "ctrl+p", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "ctrl+n", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter", " ":
			m.state = stateConfirm
		case "r":
			m.state = stateLoading
			return m, loadListeners(m.detector, m.query)
		}

	case stateConfirm:
		switch msg.String() {
		case "y", "Y", "enter":
			m.state = stateWorking
			return m, m.executeSweep()
		case "n", "N", "esc":
			if len(m.items) == 0 {
				m.quitting = true
				return m, tea.Quit
			}
			m.state = stateList
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case stateResult:
		switch msg.String() {
		case "ctrl+c", "esc", "enter", "q":
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.state {
	case stateLoading:
		return "\n  Scanning port...\n"
	case stateList:
		return m.viewList()
	case stateConfirm:
		return m.viewConfirm()
	case stateWorking:
		return "\n  Working...\n"
	case stateResult:
		return m.viewResult()
	}
	return ""
}

func (m Model) viewList() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("Processes on port %d", m.query.Port)),
		m.buildTable(),
		m.buildDetailPanel(),
		helpStyle.Render("C-p/C-n navigate • enter sweep • r refresh • q quit"),
		"",
	)
}

func (m Model) viewConfirm() string {
	sections := []string{
		titleStyle.Render(fmt.Sprintf("Processes on port %d", m.query.Port)),
	}
	if len(m.items) > 0 {
		sections = append(sections, m.buildTable())
	}
	sections = append(sections,
		m.buildConfirmPrompt(),
		helpStyle.Render("y/enter confirm • n/esc cancel"),
		"",
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewResult() string {
	var msg string
	if m.isError {
		msg = errorStyle.Render("  " + m.message)
	} else {
		msg = successStyle.Render("  " + m.message)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		msg,
		helpStyle.Render("  enter/esc quit"),
		"",
	)
}

// buildTable constructs a lipgloss table from the listener items.
func (m Model) buildTable() string {
	width := m.width
	if width == 0 {
		width = 80
	}

	rows := make([][]string, len(m.items))
	for i, item := range m.items {
		rows[i] = m.buildRow(i, item, width)
	}

	t := table.New().
		Headers("", "PORT", "PID", "COMMAND").
		Rows(rows...).
		Border(lipgloss.NormalBorder()).
		BorderHeader(true).
		BorderColumn(false).
		BorderRow(false).
		Width(width).
		StyleFunc(m.tableStyleFunc)

	return t.Render()
}

func (m Model) tableStyleFunc(row, col int) lipgloss.Style {
	if row == table.HeaderRow {
		s := tableHeaderStyle
		if col == 0 {
			return s.Width(2)
		}
		return s
	}

	if row == m.cursor {
		s := tableSelectedStyle
		if col == 0 {
			return s.Width(2)
		}
		return s
	}

	s := tableCellStyle
	if col == 0 {
		return s.Width(2)
	}
	switch col {
	case 1: // PORT
		return s.Foreground(colorAccent)
	case 2: // PID
		return s.Foreground(colorYellow)
	case 3: // COMMAND
		return s.Foreground(colorSubtle)
	}
	return s
}

func (m Model) buildRow(index int, item listenerItem, width int) []string {
	sel := " "
	if index == m.cursor {
		sel = ">"
	}

	portStr := fmt.Sprintf(":%d/%s", item.listener.Port, item.listener.Protocol)
	pidStr := strconv.Itoa(item.context.Info.PID)

	cmd := item.context.Info.Command
	// Reserve space for selector(2) + port(~12) + pid(~8) + borders/padding(~10)
	maxCmd := width - 32
	if maxCmd < 20 {
		maxCmd = 20
	}
	if len(cmd) > maxCmd && maxCmd > 3 {
		cmd = cmd[:maxCmd-3] + "..."
	}

	return []string{sel, portStr, pidStr, cmd}
}

// buildDetailPanel renders the detail panel for the selected item.
func (m Model) buildDetailPanel() string {
	if m.cursor >= len(m.items) {
		return ""
	}
	item := m.items[m.cursor]
	info := item.context.Info

	var lines []string

	if info.User != "" {
		lines = append(lines, detailLabelStyle.Render("User")+detailValueStyle.Render(info.User))
	}
	if info.MemoryKB > 0 {
		var memStr string
		if info.MemoryKB > 1024 {
			memStr = fmt.Sprintf("%d MB", info.MemoryKB/1024)
		} else {
			memStr = fmt.Sprintf("%d KB", info.MemoryKB)
		}
		lines = append(lines, detailLabelStyle.Render("Memory")+detailValueStyle.Render(memStr))
	}
	if uptime := info.Uptime(); uptime > 0 {
		lines = append(lines, detailLabelStyle.Render("Uptime")+detailValueStyle.Render(formatDuration(uptime)))
	}
	if len(info.Children) > 0 {
		lines = append(lines, detailLabelStyle.Render("Children")+detailValueStyle.Render(strconv.Itoa(len(info.Children))))
	}

	action := kill.Action{
		Strategy: kill.RecommendedStrategy(item.context),
		Context:  item.context,
		Graceful: m.graceful,
	}
	lines = append(lines, detailLabelStyle.Render("Action")+strategyStyle.Render(kill.Describe(action)))

	var warnings []string
	if info.IsPrivileged() {
		warnings = append(warnings, "needs sudo")
	}
	if len(info.Children) > 0 {
		warnings = append(warnings, fmt.Sprintf("%d children affected", len(info.Children)))
	}
	if len(warnings) > 0 {
		lines = append(lines, detailLabelStyle.Render("Warning")+warningStyle.Render(strings.Join(warnings, ", ")))
	}

	var tags []string
	if item.context.IsContainerized() {
		name := item.context.Container.Name
		if name == "" {
			name = container.ShortID(item.context.Container.ID)
		}
		tags = append(tags, tagContainerStyle.Render(fmt.Sprintf("%s:%s", item.context.Container.Runtime, name)))
	}
	if item.context.IsSystemdManaged() {
		tags = append(tags, tagSystemdStyle.Render(item.context.SystemdUnit))
	}
	if len(tags) > 0 {
		lines = append(lines, detailLabelStyle.Render("")+strings.Join(tags, " "))
	}

	content := strings.Join(lines, "\n")
	if m.width > 0 {
		// Account for border (2 chars) and padding (2 chars)
		return detailPanelStyle.Width(m.width - 4).Render(content)
	}
	return detailPanelStyle.Render(content)
}

// buildConfirmPrompt renders the inline confirm prompt.
func (m Model) buildConfirmPrompt() string {
	var desc string
	switch {
	case len(m.items) == 0:
		desc = fmt.Sprintf("port %d is free; run %s", m.query.Port, m.stopper.Describe())
	case m.skipStop:
		desc = fmt.Sprintf("kill %d process(es)", len(m.items))
	default:
		desc = fmt.Sprintf("kill %d process(es), then run %s", len(m.items), m.stopper.Describe())
	}

	content := confirmPromptStyle.Render("Sweep? ") + confirmDescStyle.Render(desc+" [y/n]")
	if m.width > 0 {
		return confirmPanelStyle.Width(m.width - 4).Render(content)
	}
	return confirmPanelStyle.Render(content)
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	if h >= 24 {
		return fmt.Sprintf("%dd", h/24)
	}
	if h > 0 {
		return fmt.Sprintf("%dh", h)
	}
	if mins := int(d.Minutes()); mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
