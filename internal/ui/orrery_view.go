package ui

import (
	"fmt"
	"image"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-orrery/internal/render"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/viewport"
)

// LabelMode controls which labels are drawn over the canvas.
type LabelMode int

const (
	LabelNone    LabelMode = iota // No labels
	LabelFocused                  // Only the focused body
	LabelAll                      // Every visible body
)

func (l LabelMode) String() string {
	switch l {
	case LabelNone:
		return "off"
	case LabelFocused:
		return "focus"
	case LabelAll:
		return "all"
	default:
		return "?"
	}
}

// Keyboard rotation step in radians.
const keyRotateStep = 0.08

// OrreryModel renders the host surface as half-block cells with label,
// legend and HUD rows, and turns keys and mouse input into host events.
type OrreryModel struct {
	host   *viewport.Host
	width  int
	height int // Canvas rows

	focusIdx  int // scene.BodyID, or -1 for the central body
	labelMode LabelMode

	pointer *viewport.Pointer
}

// NewOrreryModel creates the view.
func NewOrreryModel(host *viewport.Host, opts Options) OrreryModel {
	return OrreryModel{
		host:      host,
		focusIdx:  -1,
		labelMode: opts.Labels,
		// Each cell row holds two pixel rows.
		pointer: &viewport.Pointer{ScaleX: 1, ScaleY: 2},
	}
}

// SetSize updates the canvas size in cells.
func (m OrreryModel) SetSize(width, height int) OrreryModel {
	m.width = width
	m.height = height
	return m
}

// Update handles input messages.
func (m OrreryModel) Update(msg tea.Msg) (OrreryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "[":
			m.focusPrev()
		case "k", "]":
			m.focusNext()

		case "up":
			m.input(viewport.Event{Kind: viewport.EventRotate, DY: -keyRotateStep})
		case "down":
			m.input(viewport.Event{Kind: viewport.EventRotate, DY: keyRotateStep})
		case "left":
			m.input(viewport.Event{Kind: viewport.EventRotate, DX: -keyRotateStep})
		case "right":
			m.input(viewport.Event{Kind: viewport.EventRotate, DX: keyRotateStep})

		case "+", "=":
			m.input(viewport.Event{Kind: viewport.EventWheel, Delta: -2})
		case "-":
			m.input(viewport.Event{Kind: viewport.EventWheel, Delta: 2})

		case "a":
			m.input(viewport.Event{Kind: viewport.EventToggleAutoRotate})
		case "l":
			m.labelMode = (m.labelMode + 1) % 3
		case "t":
			r := m.host.Renderer()
			r.Options.Stars = !r.Options.Stars
		case "r":
			m.input(viewport.Event{Kind: viewport.EventReset})
			m.focusIdx = -1
		}

	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	return m, nil
}

func (m *OrreryModel) handleMouse(msg tea.MouseMsg) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.input(viewport.Event{Kind: viewport.EventWheel, Delta: -1})
	case msg.Button == tea.MouseButtonWheelDown:
		m.input(viewport.Event{Kind: viewport.EventWheel, Delta: 1})

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.input(m.pointer.Press(float64(msg.X), float64(msg.Y)))

	case msg.Action == tea.MouseActionMotion:
		if ev, ok := m.pointer.Move(float64(msg.X), float64(msg.Y)); ok {
			m.input(ev)
		}

	case msg.Action == tea.MouseActionRelease:
		if ev, ok := m.pointer.Release(); ok {
			m.input(ev)
		}
	}
}

func (m OrreryModel) input(ev viewport.Event) {
	// Input after Close is dropped; the frame loop reports ErrClosed.
	_ = m.host.Input(ev)
}

func (m *OrreryModel) focusNext() {
	n := m.host.Scene().Len()
	m.focusIdx++
	if m.focusIdx >= n {
		m.focusIdx = -1
	}
}

func (m *OrreryModel) focusPrev() {
	n := m.host.Scene().Len()
	m.focusIdx--
	if m.focusIdx < -1 {
		m.focusIdx = n - 1
	}
}

// View renders the canvas, legend and HUD.
func (m OrreryModel) View(fps float64) string {
	if m.width < 20 || m.height < 4 {
		return "Terminal too small for the orrery"
	}
	canvas := m.renderCanvas()
	return lipgloss.JoinVertical(lipgloss.Left, canvas, m.renderLegend(), m.renderHUD(fps))
}

// cell is one terminal cell: a half-block with optional label text.
type cell struct {
	top, bottom colorful.Color
	label       rune
	labelColor  colorful.Color
}

func (m OrreryModel) renderCanvas() string {
	s := m.host.Surface()
	if !s.Available() {
		return ""
	}
	img := s.Image()
	if s.Width() != m.width || s.Height() != m.height*2 {
		img = s.Downsample(m.width, m.height*2)
	}

	grid := imageGrid(img)
	scaleX := float64(m.width) / float64(s.Width())
	scaleY := float64(m.height) / float64(s.Height())
	m.renderLabels(grid, m.host.Labels(), scaleX, scaleY)

	return renderGrid(grid)
}

// imageGrid folds pairs of pixel rows into half-block cells.
func imageGrid(img *image.RGBA) [][]cell {
	b := img.Bounds()
	rows := (b.Dy() + 1) / 2
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, b.Dx())
		for x := range grid[y] {
			grid[y][x] = cell{
				top:    pixel(img, b.Min.X+x, b.Min.Y+2*y),
				bottom: pixel(img, b.Min.X+x, b.Min.Y+2*y+1),
			}
		}
	}
	return grid
}

// RenderImage renders img as half-block text, two pixel rows per line.
func RenderImage(img *image.RGBA) string {
	return renderGrid(imageGrid(img))
}

func pixel(img *image.RGBA, x, y int) colorful.Color {
	c := img.RGBAAt(x, y)
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// renderLabels writes label text into the grid. Labels are centred above
// their anchor; the focused label is marked and always wins.
func (m OrreryModel) renderLabels(grid [][]cell, labels []render.Label, scaleX, scaleY float64) {
	if m.labelMode == LabelNone {
		return
	}

	var focused *render.Label
	for i := range labels {
		l := &labels[i]
		if !l.Visible {
			continue
		}
		isFocused := int(l.Body) == m.focusIdx
		if isFocused {
			focused = l
			continue
		}
		if m.labelMode == LabelAll {
			writeLabel(grid, l.Text, l.Color, l.X*scaleX, l.Y*scaleY)
		}
	}
	if focused != nil {
		writeLabel(grid, "◄ "+focused.Text, focused.Color, focused.X*scaleX, focused.Y*scaleY)
	}
}

func writeLabel(grid [][]cell, text string, c colorful.Color, x, y float64) {
	runes := []rune(text)
	row := int(math.Floor(y))
	if row < 0 || row >= len(grid) {
		return
	}
	col := int(math.Round(x)) - len(runes)/2
	for i, r := range runes {
		cx := col + i
		if cx < 0 || cx >= len(grid[row]) {
			continue
		}
		grid[row][cx].label = r
		grid[row][cx].labelColor = c
	}
}

func renderGrid(grid [][]cell) string {
	var b strings.Builder
	for y, row := range grid {
		for _, c := range row {
			if c.label != 0 {
				style := lipgloss.NewStyle().
					Foreground(lipgloss.Color(c.labelColor.Clamped().Hex())).
					Background(lipgloss.Color(c.bottom.Hex())).
					Bold(true)
				b.WriteString(style.Render(string(c.label)))
				continue
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(c.top.Hex())).
				Background(lipgloss.Color(c.bottom.Hex()))
			b.WriteString(style.Render("▀"))
		}
		if y < len(grid)-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

func (m OrreryModel) renderLegend() string {
	var parts []string
	for _, cat := range m.host.Scene().Config.Categories() {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(cat.Color.Hex())).Render("●")
		name := lipgloss.NewStyle().Foreground(lipgloss.Color("249")).Render(fmt.Sprintf(" %s (%d)", cat.Name, len(cat.Bodies)))
		parts = append(parts, swatch+name)
	}
	return "  " + strings.Join(parts, "   ")
}

func (m OrreryModel) renderHUD(fps float64) string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#2dd4bf")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	b.WriteString("  ")
	b.WriteString(headerStyle.Render("◆ " + m.focusName()))
	b.WriteString("  ")

	cam := m.host.CameraState()
	auto := "off"
	if cam.AutoRotate {
		auto = "on"
	}
	stars := "off"
	if m.host.Renderer().Options.Stars {
		stars = "on"
	}

	b.WriteString(dimStyle.Render("Dist:"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f", cam.Distance)))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Tilt:"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.0f°", cam.Polar*180/math.Pi)))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Auto:"))
	b.WriteString(valueStyle.Render(auto))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Labels:"))
	b.WriteString(valueStyle.Render(m.labelMode.String()))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Stars:"))
	b.WriteString(valueStyle.Render(stars))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("FPS:"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.0f", fps)))

	return b.String()
}

func (m OrreryModel) focusName() string {
	sc := m.host.Scene()
	if m.focusIdx < 0 {
		return sc.Central.Label
	}
	b, err := sc.Body(scene.BodyID(m.focusIdx))
	if err != nil {
		return sc.Central.Label
	}
	return fmt.Sprintf("%s · %s", b.Name, sc.Config.Category(b.Category).Name)
}

// FocusIndex returns the focused body ID, or -1 for the central body.
func (m OrreryModel) FocusIndex() int { return m.focusIdx }

// LabelMode returns the current label mode.
func (m OrreryModel) LabelMode() LabelMode { return m.labelMode }
