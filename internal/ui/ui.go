// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-orrery/internal/surface"
	"github.com/litescript/ls-orrery/internal/version"
	"github.com/litescript/ls-orrery/internal/viewport"
)

// Msg types for Bubble Tea
type (
	// FrameMsg drives one render frame.
	FrameMsg time.Time

	// AnimTickMsg advances the spinner.
	AnimTickMsg time.Time
)

// Rows reserved around the canvas: header, legend, HUD and footer.
const chromeRows = 5

// Options configure the terminal host.
type Options struct {
	FPS       int
	Labels    LabelMode
	ShowStars bool
}

// DefaultOptions returns 30 fps with the focused label shown.
func DefaultOptions() Options {
	return Options{FPS: 30, Labels: LabelFocused, ShowStars: true}
}

// Model is the root Bubble Tea model.
type Model struct {
	host *viewport.Host

	width    int
	height   int
	ready    bool
	animTick int
	interval time.Duration

	start     time.Time
	lastFrame time.Time
	fps       float64
	err       error

	orrery OrreryModel
}

// New creates the root model around a mounted host.
func New(host *viewport.Host, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	host.Renderer().Options.Stars = opts.ShowStars
	return Model{
		host:     host,
		interval: time.Second / time.Duration(opts.FPS),
		orrery:   NewOrreryModel(host, opts),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		frameCmd(0),
		animTickCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		default:
			var cmd tea.Cmd
			m.orrery, cmd = m.orrery.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.orrery, cmd = m.orrery.Update(msg)
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		canvasH := max(1, msg.Height-chromeRows)
		m.orrery = m.orrery.SetSize(msg.Width, canvasH)
		// Each cell holds two vertical pixels.
		if err := m.host.Resize(surface.Region{Width: max(1, msg.Width), Height: canvasH * 2}); err != nil {
			m.err = err
		}

	case FrameMsg:
		now := time.Time(msg)
		if m.start.IsZero() {
			m.start = now
		}
		if !m.lastFrame.IsZero() {
			if d := now.Sub(m.lastFrame).Seconds(); d > 0 {
				inst := 1 / d
				if m.fps == 0 {
					m.fps = inst
				} else {
					m.fps = m.fps*0.9 + inst*0.1
				}
			}
		}
		m.lastFrame = now
		if m.ready {
			if err := m.host.Frame(now.Sub(m.start).Seconds()); err != nil {
				m.err = err
				if errors.Is(err, viewport.ErrClosed) {
					return m, tea.Quit
				}
			}
		}
		cmds = append(cmds, frameCmd(m.interval))

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if !m.host.IsReady() {
		return m.renderLoading()
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	return header + "\n" + m.orrery.View(m.fps) + "\n" + footer
}

func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().Foreground(lipgloss.Color("#2dd4bf")).Bold(true)
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	return "  " + title.Render("Tech Stack") + muted.Render(fmt.Sprintf("  ls-orrery v%s", version.Version))
}

// renderLoading shows a spinner in place of the canvas until the first frame.
func (m Model) renderLoading() string {
	accent := lipgloss.NewStyle().Foreground(lipgloss.Color("#2dd4bf"))
	content := accent.Render(m.spinner()) + " " + m.renderShimmerText("Preparing scene...")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) spinner() string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return frames[m.animTick%len(frames)]
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))

	help := dimStyle.Render("drag/arrows: rotate | wheel/+-: zoom | a: auto | j/k: focus | l: labels | t: stars | r: reset | q: quit")
	if m.err != nil {
		return "  " + errorStyle.Render("ERROR: "+m.err.Error()) + "  " + help
	}
	return "  " + help
}

// renderShimmerText renders text with a subtle moving shine effect.
func (m Model) renderShimmerText(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	pos := m.animTick % (len(runes) + 8)

	var result strings.Builder
	for i, r := range runes {
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}
		var hex string
		switch {
		case dist <= 1:
			hex = "#A7F3E8"
		case dist <= 3:
			hex = "#6FD9CB"
		case dist <= 5:
			hex = "#3FA99C"
		default:
			hex = "#2A6F68"
		}
		result.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(string(r)))
	}
	return result.String()
}

// Err returns the last frame or resize error.
func (m Model) Err() error { return m.err }

func frameCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}
