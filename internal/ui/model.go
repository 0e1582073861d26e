package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/genricoloni/chiptuned/internal/domain"
	"go.uber.org/zap"
)

const (
	playLabel = "♪ Play 8-Bit Music"
	stopLabel = "■ Stop Music"

	refreshInterval = 100 * time.Millisecond
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff0055"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2).
			Foreground(lipgloss.Color("#ffffff"))
	idleButton    = buttonStyle.Background(lipgloss.Color("#444444"))
	playingButton = buttonStyle.Background(lipgloss.Color("#ff0055"))
)

type Model struct {
	logger  *zap.Logger
	player  domain.Player
	trigger domain.Trigger
	title   string
	steps   int

	ctx       context.Context
	state     domain.PlaybackState
	position  domain.Position
	err       error
	searching bool
	query     string
	quitting  bool
}

type tickMsg time.Time

// NewModel creates the toggle screen for player
func NewModel(logger *zap.Logger, player domain.Player, trigger domain.Trigger, title string, steps int) Model {
	return Model{
		logger:  logger,
		player:  player,
		trigger: trigger,
		title:   title,
		steps:   steps,
		ctx:     context.Background(),
		state:   player.State(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if err := m.player.Close(m.ctx); err != nil {
				m.logger.Warn("Failed to close player", zap.Error(err))
			}
			return m, tea.Quit

		case " ", "enter":
			m.err = m.player.Toggle(m.ctx)

		case "/":
			m.searching = true
			m.query = ""
		}
		m.refresh()

	case tickMsg:
		m.refresh()
		return m, tick()
	}

	return m, nil
}

// updateSearch edits the search prompt; submitting it raises the play trigger
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.query = ""

	case tea.KeyEnter:
		m.searching = false
		m.logger.Info("Search submitted", zap.String("query", m.query))
		// the trigger stays high; only the first search starts playback
		m.err = m.trigger.Set(m.ctx, true)
		m.query = ""

	case tea.KeyBackspace:
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
		}

	case tea.KeyCtrlC:
		m.searching = false

	case tea.KeyRunes, tea.KeySpace:
		m.query += string(msg.Runes)
	}

	m.refresh()
	return m, nil
}

func (m *Model) refresh() {
	m.state = m.player.State()
	m.position = m.player.Position()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("chiptuned"))
	b.WriteString("  ")
	b.WriteString(m.title)
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("%s · %.0f bpm · step %d/%d",
		m.state, m.player.Tempo(), m.position.Index+1, m.steps)))
	b.WriteString("\n\n")

	if m.state == domain.StatePlaying {
		b.WriteString(playingButton.Render(stopLabel))
	} else {
		b.WriteString(idleButton.Render(playLabel))
	}
	b.WriteString("\n\n")

	if m.searching {
		b.WriteString("search: " + m.query + "█\n\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(helpStyle.Render("space toggle · / search · q quit"))
	b.WriteString("\n")
	return b.String()
}
