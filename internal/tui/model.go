// Package tui provides the Bubble Tea streak widget.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fardannozami/gym-streak/internal/app/controller"
	"github.com/fardannozami/gym-streak/internal/app/widget"
)

var (
	cardStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	streakStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	filledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")).Italic(true)
)

type loadedMsg struct {
	state controller.State
}

type mutationMsg struct {
	op      string
	changed bool
	err     error
}

// Model renders one controller as an interactive widget.
type Model struct {
	ctrl   *controller.Controller
	ctx    context.Context
	debug  bool
	status string
	err    string
	quit   bool
}

// NewModel constructs the widget for ctrl. debug enables the reset and
// increment keys.
func NewModel(ctx context.Context, ctrl *controller.Controller, debug bool) *Model {
	return &Model{ctrl: ctrl, ctx: ctx, debug: debug}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{state: m.ctrl.Load(m.ctx)}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.status = ""
		return m, nil
	case mutationMsg:
		m.applyResult(msg)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quit = true
			m.ctrl.Close()
			return m, tea.Quit
		case "m":
			return m, m.run("mark", func(ctx context.Context) (bool, error) {
				return m.ctrl.MarkAttendance(ctx)
			})
		case "r":
			if !m.debug {
				return m, nil
			}
			return m, m.run("reset", func(ctx context.Context) (bool, error) {
				return true, m.ctrl.Reset(ctx)
			})
		case "d":
			if !m.debug {
				return m, nil
			}
			return m, m.run("increment", m.ctrl.IncrementStreak)
		}
	}
	return m, nil
}

func (m *Model) run(op string, fn func(ctx context.Context) (bool, error)) tea.Cmd {
	if m.ctrl.Snapshot().State != controller.StateActive {
		return nil
	}
	m.err = ""
	return func() tea.Msg {
		changed, err := fn(m.ctx)
		return mutationMsg{op: op, changed: changed, err: err}
	}
}

func (m *Model) applyResult(msg mutationMsg) {
	switch {
	case errors.Is(msg.err, controller.ErrMutationInFlight):
		m.status = "masih menyimpan, coba lagi sebentar"
	case errors.Is(msg.err, controller.ErrClosed):
		m.status = ""
	case msg.err != nil:
		m.err = fmt.Sprintf("%s gagal: %v", msg.op, msg.err)
		m.status = ""
	case msg.op == "mark" && !msg.changed:
		m.status = "sudah absen hari ini"
	case msg.op == "mark":
		m.status = "kehadiran tercatat"
	case msg.op == "reset":
		m.status = "riwayat dihapus"
	case msg.op == "increment":
		m.status = "streak dinaikkan"
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quit {
		return ""
	}
	snap := m.ctrl.Snapshot()
	v := widget.Build(snap)

	var body strings.Builder
	body.WriteString(titleStyle.Render("Streak mingguan"))
	body.WriteString("\n")

	switch v.State {
	case controller.StateLoading:
		body.WriteString(mutedStyle.Render("memuat..."))
	case controller.StateNoUser:
		body.WriteString(mutedStyle.Render("0"))
		body.WriteString("\n")
		body.WriteString(mutedStyle.Render(v.Message.Text()))
	default:
		if v.Name != "" {
			body.WriteString(titleStyle.Render(v.Name))
			body.WriteString("\n")
		}
		body.WriteString(streakStyle.Render(fmt.Sprintf("%d 🔥", v.Streak)))
		body.WriteString("\n")
		body.WriteString(renderMarkers(v.Markers))
		body.WriteString(fmt.Sprintf(" %d/%d", v.CurrentWeekCount, v.Goal))
		body.WriteString("\n")
		body.WriteString(v.Message.Text())
		if snap.Phase == controller.PhasePending {
			body.WriteString("\n")
			body.WriteString(pendingStyle.Render("menyimpan..."))
		}
	}

	out := cardStyle.Render(body.String())
	if m.err != "" {
		out += "\n" + errorStyle.Render(m.err)
	} else if m.status != "" {
		out += "\n" + mutedStyle.Render(m.status)
	}
	return out + "\n" + m.renderFooter(v.State) + "\n"
}

func renderMarkers(markers []bool) string {
	var sb strings.Builder
	for i, filled := range markers {
		if i > 0 {
			sb.WriteString(" ")
		}
		if filled {
			sb.WriteString(filledStyle.Render("●"))
		} else {
			sb.WriteString(emptyStyle.Render("○"))
		}
	}
	return sb.String()
}

func (m *Model) renderFooter(state controller.State) string {
	if state != controller.StateActive {
		return footerStyle.Render("q keluar")
	}
	keys := []string{"m absen"}
	if m.debug {
		keys = append(keys, "r reset", "d naik")
	}
	keys = append(keys, "q keluar")
	return footerStyle.Render(strings.Join(keys, " · "))
}
