// Package viz is a terminal view of a running simulation.
package viz

import (
	"fmt"
	"strings"
	"time"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"
	"rigid3d/internal/physics"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const (
	canvasWidth     = 60
	canvasHeight    = 20
	historyCapacity = 600
)

var (
	canvasStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statsStyle  = lipgloss.NewStyle().Padding(0, 2).Width(40)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	runStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Viewport is the visible slab of the XY plane.
type Viewport struct {
	MinX, MaxX float32
	MinY, MaxY float32
}

var DefaultView = Viewport{MinX: -10, MaxX: 10, MinY: -1, MaxY: 12}

// Model steps a physics world on every tick and draws a side view of the
// scene with a height trace of one tracked body.
type Model struct {
	world   *physics.PhysicsWorld
	scene   *engine.Scene
	dt      float64
	useGPU  bool
	view    Viewport
	running bool
	steps   int
	t       float64

	tracked *engine.GameObject
	heights []float64
	canvas  [][]rune
}

// NewModel tracks the object named track, or the first dynamic body when
// track is empty or not found.
func NewModel(world *physics.PhysicsWorld, scene *engine.Scene, dt float64, useGPU bool, track string) Model {
	m := Model{
		world:   world,
		scene:   scene,
		dt:      dt,
		useGPU:  useGPU,
		view:    DefaultView,
		running: true,
		heights: make([]float64, 0, historyCapacity),
		canvas:  make([][]rune, canvasHeight),
	}
	for i := range m.canvas {
		m.canvas[i] = make([]rune, canvasWidth)
	}
	if track != "" {
		m.tracked = scene.FindByName(track)
	}
	if m.tracked == nil {
		for _, g := range scene.GameObjects {
			if rb := engine.GetComponent[*components.Rigidbody](g); rb != nil && rb.BodyType == components.Dynamic {
				m.tracked = g
				break
			}
		}
	}
	return m
}

func (m Model) WithView(v Viewport) Model {
	m.view = v
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.step()
			}
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	if m.useGPU {
		m.world.StepGPU(m.scene, m.dt)
	} else {
		m.world.Step(m.scene, m.dt)
	}
	m.steps++
	m.t += m.dt

	if m.tracked != nil {
		if len(m.heights) == historyCapacity {
			m.heights = m.heights[1:]
		}
		m.heights = append(m.heights, float64(m.tracked.Transform.Position.Y))
	}
}

func (m Model) Steps() int { return m.steps }

func (m Model) Running() bool { return m.running }

func (m Model) Heights() []float64 { return m.heights }

// draw projects each body's world AABB onto the XY plane.
func (m *Model) draw() {
	for y := range m.canvas {
		for x := range m.canvas[y] {
			m.canvas[y][x] = ' '
		}
	}
	sx := float32(canvasWidth) / (m.view.MaxX - m.view.MinX)
	sy := float32(canvasHeight) / (m.view.MaxY - m.view.MinY)

	for _, g := range m.scene.GameObjects {
		if !g.Active {
			continue
		}
		col := engine.GetComponent[*components.Collider](g)
		rb := engine.GetComponent[*components.Rigidbody](g)
		if col == nil || col.Shape == nil || rb == nil {
			continue
		}
		box := physics.ComputeAABB(col.Shape, col.WorldMatrix())
		x0 := int((box.Min.X - m.view.MinX) * sx)
		x1 := int((box.Max.X - m.view.MinX) * sx)
		// row 0 is the top of the view
		y0 := canvasHeight - 1 - int((box.Max.Y-m.view.MinY)*sy)
		y1 := canvasHeight - 1 - int((box.Min.Y-m.view.MinY)*sy)
		glyph := bodyGlyph(rb, g == m.tracked)
		for y := max(y0, 0); y <= min(y1, canvasHeight-1); y++ {
			for x := max(x0, 0); x <= min(x1, canvasWidth-1); x++ {
				m.canvas[y][x] = glyph
			}
		}
	}
}

func bodyGlyph(rb *components.Rigidbody, tracked bool) rune {
	switch {
	case rb.BodyType == components.Static:
		return '='
	case rb.BodyType == components.Kinematic:
		return 'K'
	case tracked:
		return '@'
	case rb.IsSleeping:
		return 'z'
	}
	return 'O'
}

func (m Model) canvasString() string {
	rows := make([]string, len(m.canvas))
	for i, row := range m.canvas {
		rows[i] = string(row)
	}
	return strings.Join(rows, "\n")
}

func (m Model) View() string {
	m.draw()
	stats := m.world.Stats()

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.scene.Name)) + "\n")
	if m.running {
		s.WriteString(runStyle.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(pausedStyle.Render("PAUSED") + "\n\n")
	}
	if len(m.heights) > 1 {
		caption := "height"
		if m.tracked != nil {
			caption = m.tracked.Name + " height"
		}
		chart := asciigraph.Plot(m.heights, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption(caption))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.t))
	row("Steps", fmt.Sprintf("%d", m.steps))
	row("Bodies", fmt.Sprintf("%d dynamic", stats.DynamicCount))
	row("Sleeping", fmt.Sprintf("%d", stats.SleepingCount))
	row("Pairs", fmt.Sprintf("%d", stats.PairCount))
	row("Contacts", fmt.Sprintf("%d", stats.ContactCount))
	if stats.UsingGPU {
		row("Backend", "GPU")
	} else {
		row("Backend", "CPU")
	}
	s.WriteString(helpStyle.Render("SP:Pause .:Step Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.canvasString()), statsStyle.Render(s.String()))
}

// Run blocks until the user quits.
func Run(m Model) error {
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return fmt.Errorf("failed to run live view: %w", err)
	}
	return nil
}
