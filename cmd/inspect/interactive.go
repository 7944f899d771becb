package main

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/storage-host/device"
	"github.com/wippyai/storage-host/handle"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	currentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	outputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const eventLogDepth = 12

type inspectModel struct {
	err      error
	rt       *handle.Runtime
	work     *workload
	steps    []step
	events   *eventLog
	dev      device.Device
	hermetic bool
	output   string
	poke     textinput.Model
	poking   bool
	next     int
	running  bool
	runAll   bool
}

// eventLog collects handle lifecycle events as they happen. Steps execute one
// at a time, so plain appends are fine.
type eventLog struct {
	entries []handle.Event
}

func (l *eventLog) OnHandleEvent(e handle.Event) {
	l.entries = append(l.entries, e)
}

type stepDoneMsg struct {
	err    error
	output string
}

func newInspectModel(dev device.Device, size uint64, hermetic bool) (*inspectModel, error) {
	rt, err := newRuntime(hermetic)
	if err != nil {
		return nil, err
	}
	log := &eventLog{}
	rt.Subscribe(log)

	m := &inspectModel{
		rt:       rt,
		events:   log,
		dev:      dev,
		hermetic: hermetic,
	}
	m.work = newWorkload(rt, dev, size, &bytes.Buffer{})
	m.steps = m.work.steps()

	m.poke = textinput.New()
	m.poke.Placeholder = "index=value"
	m.poke.Prompt = "write byte: "
	m.poke.Width = 24
	return m, nil
}

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) runNext() tea.Cmd {
	s := m.steps[m.next]
	m.running = true
	return func() tea.Msg {
		var buf bytes.Buffer
		m.work.out = &buf
		err := s.fn()
		return stepDoneMsg{err: err, output: buf.String()}
	}
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.poking {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc":
				m.poking = false
				m.poke.Blur()
				return m, nil
			case "enter":
				m.poking = false
				m.poke.Blur()
				m.output = m.applyPoke(m.poke.Value())
				return m, nil
			}
			var cmd tea.Cmd
			m.poke, cmd = m.poke.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "enter", " ":
			if !m.running && m.err == nil && m.next < len(m.steps) {
				return m, m.runNext()
			}

		case "r":
			if !m.running && m.err == nil && m.next < len(m.steps) {
				m.runAll = true
				return m, m.runNext()
			}

		case "w":
			if !m.running && m.work.sized != nil && m.dev.Kind != device.Meta {
				m.poking = true
				m.poke.SetValue("")
				m.poke.Focus()
			}
		}

	case stepDoneMsg:
		m.running = false
		m.output = msg.output
		if msg.err != nil {
			m.err = msg.err
			m.runAll = false
			return m, nil
		}
		m.next++
		if m.runAll && m.next < len(m.steps) {
			return m, m.runNext()
		}
		m.runAll = false
	}

	return m, nil
}

// applyPoke parses "index=value" and writes one byte into the demo storage.
func (m *inspectModel) applyPoke(input string) string {
	parts := strings.SplitN(strings.TrimSpace(input), "=", 2)
	if len(parts) != 2 {
		return "write byte: expected index=value"
	}
	index, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return fmt.Sprintf("write byte: bad index: %v", err)
	}
	value, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return fmt.Sprintf("write byte: bad value: %v", err)
	}
	if err := handle.SetIndex(m.rt, m.work.sized, index, value); err != nil {
		return fmt.Sprintf("write byte: %v", err)
	}
	b, err := handle.GetIndex(m.rt, m.work.sized, index)
	if err != nil {
		return fmt.Sprintf("read back: %v", err)
	}
	return fmt.Sprintf("storage[%d] = %d", index, b)
}

func (m *inspectModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Storage Inspector"))
	b.WriteString(fmt.Sprintf(" device=%s hermetic=%v\n\n", m.dev, m.hermetic))

	for i, s := range m.steps {
		switch {
		case i < m.next:
			b.WriteString(doneStyle.Render("  ✓ " + s.name))
		case i == m.next && m.err == nil:
			b.WriteString(currentStyle.Render("  > " + s.name))
		default:
			b.WriteString("    " + s.name)
		}
		b.WriteString("\n")
	}

	if m.poking {
		b.WriteString("\n")
		b.WriteString(m.poke.View())
		b.WriteString("\n")
	} else if m.output != "" {
		b.WriteString("\n")
		b.WriteString(outputStyle.Render(strings.TrimRight(m.output, "\n")))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\nLifecycle events:\n")
	entries := m.events.entries
	if len(entries) > eventLogDepth {
		entries = entries[len(entries)-eventLogDepth:]
	}
	if len(entries) == 0 {
		b.WriteString(helpStyle.Render("  (none yet)"))
		b.WriteString("\n")
	}
	for _, e := range entries {
		b.WriteString(eventStyle.Render(fmt.Sprintf("  %-12s %-12s core=0x%x size=%d device=%s refs=%d",
			e.Type, e.TypeName, e.Core, e.Size, e.Device, e.CoreRefs)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Live handles tracked: %d\n", m.rt.TrackedCount()))

	switch {
	case m.poking:
		b.WriteString(helpStyle.Render("enter write • esc cancel"))
	case m.err != nil:
		b.WriteString(helpStyle.Render("q quit"))
	case m.next >= len(m.steps):
		b.WriteString(helpStyle.Render("all steps done • q quit"))
	default:
		b.WriteString(helpStyle.Render("enter next step • r run all • w write byte • q quit"))
	}
	return b.String()
}

func runInteractive(dev device.Device, size uint64, hermetic bool) error {
	m, err := newInspectModel(dev, size, hermetic)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
