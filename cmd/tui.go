// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vedirect-go/vedirect/pkg/vedirect"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// monitorPacketMsg carries one decoded packet from the callback loop into
// the TUI's Update loop.
type monitorPacketMsg struct {
	packet *vedirect.Packet
}

// monitorErrMsg carries a fatal callback-loop error; receiving one ends
// the program.
type monitorErrMsg struct {
	err error
}

type monitorTickMsg time.Time

// monitorModel is the bubbletea model for the `monitor` command: it shows
// the most recently decoded packet plus a short event log, the same
// shape as heliostat's tui.go model.
type monitorModel struct {
	connInfo     string
	last         *vedirect.Packet
	packetCount  int
	errorCount   int
	eventLog     []string
	maxLogLines  int
	width        int
	height       int
	quitting     bool
	packets      <-chan monitorPacketMsg
	errs         <-chan monitorErrMsg
}

func newMonitorModel(connInfo string, packets <-chan monitorPacketMsg, errs <-chan monitorErrMsg) monitorModel {
	return monitorModel{
		connInfo:    connInfo,
		maxLogLines: 8,
		packets:     packets,
		errs:        errs,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(waitForPacket(m.packets), waitForErr(m.errs), monitorTickCmd())
}

func waitForPacket(ch <-chan monitorPacketMsg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func waitForErr(ch <-chan monitorErrMsg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return monitorTickMsg(t) })
}

func (m monitorModel) logLine(s string) []string {
	lines := append(m.eventLog, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), s))
	if len(lines) > m.maxLogLines {
		lines = lines[len(lines)-m.maxLogLines:]
	}
	return lines
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case monitorPacketMsg:
		m.last = msg.packet
		m.packetCount++
		return m, waitForPacket(m.packets)

	case monitorErrMsg:
		m.errorCount++
		m.eventLog = m.logLine(errStyle.Render(msg.err.Error()))
		m.quitting = true
		return m, tea.Quit

	case monitorTickMsg:
		return m, monitorTickCmd()
	}
	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return "monitor stopped.\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("vedirect monitor") + "  " + dimStyle.Render(m.connInfo) + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("packets: %d   errors: %d\n\n", m.packetCount, m.errorCount)))

	if m.last == nil {
		b.WriteString(dimStyle.Render("waiting for first packet...\n"))
	} else {
		for _, k := range m.last.Keys() {
			v, _ := m.last.Get(k)
			b.WriteString(keyStyle.Render(fmt.Sprintf("%-16s", k)) + " " + v + "\n")
		}
	}

	if len(m.eventLog) > 0 {
		b.WriteString("\n" + dimStyle.Render("events:") + "\n")
		for _, line := range m.eventLog {
			b.WriteString(dimStyle.Render(line) + "\n")
		}
	}

	b.WriteString("\n" + dimStyle.Render("q to quit") + "\n")
	return b.String()
}
