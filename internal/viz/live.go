package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/orbit"
)

const (
	width           = 72
	height          = 24
	historyCapacity = 300
	trailCapacity   = 240
	maxStepsPerTick = 1024
	frameInterval   = time.Second / 30
)

type TickMsg time.Time

type point struct{ x, y float64 }

// Model steps an orbit.System on every tick and renders it.
type Model struct {
	name          string
	sys           *orbit.System
	g             float64
	initial       []orbit.Body
	step          float64
	stepsPerTick  int
	canvas        *Canvas
	view          Viewport
	trails        [][]point
	energy        *metrics.EnergyDrift
	energyHistory []float64
	running       bool
	err           error
	theme         Theme
}

// NewModel prepares a view of sys advanced by step per RK4 step. The bodies
// present now are what reset returns to.
func NewModel(name string, sys *orbit.System, step float64) Model {
	m := Model{
		name:         name,
		sys:          sys,
		g:            sys.GravitationalConstant(),
		initial:      sys.Bodies(),
		step:         step,
		stepsPerTick: 1,
		canvas:       NewCanvas(width, height),
		running:      true,
		theme:        Themes[0],
	}
	m.start()
	return m
}

func (m *Model) start() {
	m.trails = make([][]point, m.sys.NumBodies())
	m.energy = metrics.NewEnergyDrift(m.sys)
	m.energyHistory = make([]float64, 0, historyCapacity)
	m.err = nil
	m.fit()
	m.observe()
}

// SetStepsPerTick sets how many RK4 steps run per frame.
func (m *Model) SetStepsPerTick(n int) {
	m.stepsPerTick = max(1, min(n, maxStepsPerTick))
}

func (m *Model) SetTheme(t Theme) { m.theme = t }

// System returns the system currently on screen.
func (m Model) System() *orbit.System { return m.sys }

// Err returns the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

func (m Model) Running() bool { return m.running }

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.err == nil {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "+", "=":
			m.view = m.view.Zoom(1.25)
		case "-", "_":
			m.view = m.view.Zoom(0.8)
		case ">", ".":
			m.SetStepsPerTick(m.stepsPerTick * 2)
		case "<", ",":
			m.SetStepsPerTick(m.stepsPerTick / 2)
		case "f":
			m.fit()
		case "t":
			m.theme = NextTheme(m.theme)
		}
	case tea.WindowSizeMsg:
		w := max(20, msg.Width-52)
		h := max(8, msg.Height-4)
		m.canvas = NewCanvas(w, h)
		m.fit()
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

// advance runs one frame worth of steps. A failed step stops the run and
// leaves the system at the last good condition.
func (m *Model) advance() {
	for i := 0; i < m.stepsPerTick; i++ {
		if err := m.sys.StepRK4(m.step); err != nil {
			m.err = err
			m.running = false
			break
		}
	}
	m.observe()
}

func (m *Model) observe() {
	x, err := m.sys.SystemCondition()
	if err != nil {
		return
	}
	m.energy.Observe(x, m.sys.CurrentTime())
	m.energyHistory = append(m.energyHistory, m.energy.Current())
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}

	for i, b := range m.sys.Bodies() {
		m.trails[i] = append(m.trails[i], point{b.X(), b.Y()})
		if len(m.trails[i]) > trailCapacity {
			m.trails[i] = m.trails[i][1:]
		}
	}
}

// reset rebuilds the system from the bodies it started with.
func (m *Model) reset() {
	sys := orbit.NewSystem()
	sys.SetGravitationalConstant(m.g)
	for _, b := range m.initial {
		sys.AddBody(b)
	}
	m.sys = sys
	m.running = true
	m.start()
}

// barycenter returns the mass-weighted mean position.
func barycenter(bodies []orbit.Body) (float64, float64) {
	var cx, cy, total float64
	for _, b := range bodies {
		cx += b.Mass() * b.X()
		cy += b.Mass() * b.Y()
		total += b.Mass()
	}
	if total == 0 {
		return 0, 0
	}
	return cx / total, cy / total
}

// fit centers the view on the barycenter and scales it to the farthest body.
func (m *Model) fit() {
	bodies := m.sys.Bodies()
	cx, cy := barycenter(bodies)
	extent := 0.0
	for _, b := range bodies {
		extent = math.Max(extent, math.Hypot(b.X()-cx, b.Y()-cy))
	}
	m.view = Fit(m.canvas, cx, cy, extent)
}

func (m *Model) draw() {
	m.canvas.Clear()
	bodies := m.sys.Bodies()
	m.view.CenterX, m.view.CenterY = barycenter(bodies)

	for _, trail := range m.trails {
		for _, p := range trail {
			m.canvas.Set(m.view.Project(m.canvas, p.x, p.y))
		}
	}

	for _, b := range bodies {
		px, py := m.view.Project(m.canvas, b.X(), b.Y())
		m.canvas.Disc(px, py, 1)
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	st := m.theme.styles()
	m.draw()
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(st.failed.Render("STOPPED: "+m.err.Error()) + "\n\n")
	case !m.running:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	default:
		s.WriteString("RUNNING\n\n")
	}

	if chart := m.energyChart(); chart != "" {
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.4g", m.sys.CurrentTime()))
	row("Bodies", fmt.Sprintf("%d", m.sys.NumBodies()))
	row("Step", fmt.Sprintf("%g x%d", m.step, m.stepsPerTick))
	row("Energy", fmt.Sprintf("%.6g", m.energy.Current()))
	row("Drift", fmt.Sprintf("%.3e", m.energy.Value()))
	row("Zoom", fmt.Sprintf("%.3g px/unit", m.view.Scale))

	s.WriteString(st.help.Render("SP:Pause R:Reset Q:Quit\n+/-:Zoom </>:Speed F:Fit T:Theme"))

	statsView := st.stats.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

// energyChart plots recent total energy. A flat history has nothing to show.
func (m Model) energyChart() string {
	if len(m.energyHistory) < 2 {
		return ""
	}
	lo, hi := m.energyHistory[0], m.energyHistory[0]
	for _, e := range m.energyHistory {
		lo, hi = math.Min(lo, e), math.Max(hi, e)
	}
	if hi == lo {
		return ""
	}
	return asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
}
