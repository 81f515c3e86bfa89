package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cbegin/stepseq-go"
	"github.com/cbegin/stepseq-go/internal/pattern"
)

var (
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#3a5a5a"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#86b32c"))
	playheadStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f5be3c")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#def078")).Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888")).Width(7)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e06c75"))
)

type stepMsg stepseq.StepEvent
type closedMsg struct{}

type tuiModel struct {
	machine  *stepseq.Machine
	events   <-chan stepseq.StepEvent
	muted    [pattern.NumTracks]bool
	fired    []stepseq.Track
	status   string
	err      error
	quitting bool
}

func listenForSteps(events <-chan stepseq.StepEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return stepMsg(ev)
	}
}

func newTUIModel(m *stepseq.Machine) tuiModel {
	return tuiModel{machine: m, events: m.Watch(), status: "stopped"}
}

func (m tuiModel) Init() tea.Cmd {
	return listenForSteps(m.events)
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.err = nil
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case " ", "p":
			m.machine.Toggle()

		case "1", "2", "3":
			track := pattern.Track(msg.String()[0] - '1')
			m.err = m.machine.SelectTrack(track)

		case "m":
			track := m.machine.SelectedTrack()
			m.muted[track] = !m.muted[track]
			m.machine.Mute(track, m.muted[track])

		case "+", "=":
			m.err = m.machine.SetTempo(m.machine.Tempo() + 5)

		case "-", "_":
			m.err = m.machine.SetTempo(m.machine.Tempo() - 5)
		}

	case stepMsg:
		if msg.Kind == stepseq.EventTransport {
			m.status = "stopped"
			if msg.Playing {
				m.status = "playing"
			}
			m.fired = nil
		} else {
			m.fired = msg.Tracks
		}
		return m, listenForSteps(m.events)

	case closedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")

	selected := m.machine.SelectedTrack()
	playing := m.machine.Playing()
	current := m.machine.CurrentStep()
	for _, track := range pattern.Tracks() {
		label := labelStyle.Render(track.String())
		if track == selected {
			label = selectedStyle.Width(7).Render(track.String())
		}
		b.WriteString(label)
		steps := m.machine.Pattern().Steps(track)
		for i, active := range steps {
			if i > 0 && i%4 == 0 {
				b.WriteString(" ")
			}
			char, style := "·", dimStyle
			if active {
				char, style = "■", activeStyle
			}
			if playing && i == current {
				style = playheadStyle
			}
			b.WriteString(style.Render(char))
		}
		if m.muted[track] {
			b.WriteString(statusStyle.Render("  muted"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.padGrid())

	var fired []string
	for _, t := range m.fired {
		fired = append(fired, t.String())
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf("%s %3.0fbpm  step %2d  %s", m.status, m.machine.Tempo(), current+1, strings.Join(fired, " "))))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("space:play/stop  1-3:track  m:mute  +/-:tempo (stopped)  q:quit"))
	b.WriteString("\n")
	return b.String()
}

// padGrid renders the selected track as the 4x4 pad block of the window host.
func (m tuiModel) padGrid() string {
	pads := m.machine.Pads()
	rows := make([]string, 0, 4)
	for row := 0; row < 4; row++ {
		cells := make([]string, 0, 4)
		for col := 0; col < 4; col++ {
			pad := pads[row*4+col]
			style := dimStyle
			switch {
			case pad.Current:
				style = playheadStyle
			case pad.Active:
				style = activeStyle
			}
			cells = append(cells, style.Render("[##]"))
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...) + "\n"
}

func runTUI(cmd *cobra.Command, args []string) error {
	m, cleanup, err := openMachine()
	if err != nil {
		return err
	}
	defer cleanup()
	// Log lines would tear the alt screen.
	logrus.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	p := tea.NewProgram(newTUIModel(m), tea.WithAltScreen())
	_, err = p.Run()
	cancel()
	if runErr := runResult(<-done); err == nil {
		err = runErr
	}
	return err
}
