package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/experiment"
	"github.com/san-kum/clothsim/internal/metrics"
)

const (
	defaultCols     = 72
	defaultRows     = 28
	minCols         = 20
	minRows         = 8
	statsWidth      = 50
	historyCapacity = 300

	// TerminalThreshold is the pick radius in terminal cells.
	TerminalThreshold = 1.5
)

type TickMsg time.Time

// Model is the live cloth view. The left mouse button cuts, the right one
// grabs.
type Model struct {
	exp     *experiment.Experiment
	title   string
	view    *View
	canvas  *Canvas
	marks   *Canvas
	state   *cloth.State
	stretch *metrics.Stretch
	frame   time.Duration

	running  bool
	pointer  cloth.Vec2
	cutting  bool
	grabbing bool

	stretchHistory []float64
	brokenHistory  []float64
	err            error
	recorder       *Recorder
	showHelp       bool
}

// NewModel takes over the pointer mapping of a set up experiment.
func NewModel(exp *experiment.Experiment, title string) Model {
	st := exp.Simulator().State()
	view := NewView(defaultCols, defaultRows, st)

	exp.SetProjector(view)
	ia := exp.Interaction()
	ia.Threshold = TerminalThreshold
	ia.GrabScale = 1

	frame := time.Duration(exp.Config().Physics.Dt * float64(time.Second))
	if frame <= 0 {
		frame = time.Second / 50
	}

	return Model{
		exp:            exp,
		title:          title,
		view:           view,
		canvas:         NewCanvas(defaultCols, defaultRows),
		marks:          NewCanvas(defaultCols, defaultRows),
		state:          st,
		stretch:        metrics.NewStretch(),
		frame:          frame,
		running:        true,
		stretchHistory: make([]float64, 0, historyCapacity),
		brokenHistory:  make([]float64, 0, historyCapacity),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		if m.running {
			m.step()
		}
		m.draw()
		if m.recorder != nil {
			m.recorder.Capture(m.canvas, m.marks)
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "r":
		m.reset()
	case "f":
		m.view.Frame(m.state)
	case "x":
		m.view.Camera.RotateX(0.1)
	case "X":
		m.view.Camera.RotateX(-0.1)
	case "y":
		m.view.Camera.RotateY(0.1)
	case "Y":
		m.view.Camera.RotateY(-0.1)
	case "z":
		m.view.Camera.RotateZ(0.1)
	case "Z":
		m.view.Camera.RotateZ(-0.1)
	case "+", "=":
		m.view.Camera.ZoomIn()
	case "-", "_":
		m.view.Camera.ZoomOut()
	case "t":
		NextTheme()
	case "g":
		if m.recorder != nil {
			if err := m.recorder.Save("clothsim.gif"); err != nil {
				m.err = err
			}
			m.recorder = nil
		} else {
			m.recorder = NewRecorder()
		}
	case "?":
		m.showHelp = !m.showHelp
	}
	m.draw()
	return m, nil
}

// handleMouse tracks the pointer in canvas cells and the button state.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	m.pointer = cloth.Vec2{
		X: float64(msg.X-canvasPadX) + 0.5,
		Y: float64(msg.Y-canvasPadY) + 0.5,
	}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.cutting = true
		case tea.MouseButtonRight:
			m.grabbing = true
		}
	case tea.MouseActionRelease:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.cutting = false
		case tea.MouseButtonRight:
			m.grabbing = false
		default:
			m.cutting, m.grabbing = false, false
		}
	}
}

func (m *Model) resize(w, h int) {
	cols := w - statsWidth - 2*canvasPadX
	rows := h - 2*canvasPadY
	if cols < minCols {
		cols = minCols
	}
	if rows < minRows {
		rows = minRows
	}
	m.canvas = NewCanvas(cols, rows)
	m.marks = NewCanvas(cols, rows)
	m.view.Cols, m.view.Rows = cols, rows
}

func (m *Model) input() cloth.Input {
	return cloth.Input{Pointer: m.pointer, Cut: m.cutting, Grab: m.grabbing}
}

func (m *Model) step() {
	st, err := m.exp.Step(m.input())
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.state = st

	m.stretch.Observe(st)
	m.stretchHistory = appendCapped(m.stretchHistory, m.stretch.Value())
	m.brokenHistory = appendCapped(m.brokenHistory, float64(st.Broken))
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m *Model) reset() {
	m.exp.Simulator().Reset()
	m.state = m.exp.Simulator().State()
	m.stretch.Reset()
	m.stretchHistory = m.stretchHistory[:0]
	m.brokenHistory = m.brokenHistory[:0]
	m.err = nil
	m.cutting, m.grabbing = false, false
}

func (m *Model) draw() {
	m.canvas.Clear()
	m.marks.Clear()
	Render3D(m.canvas, ClothWireframe(m.state), m.view)
	Render3D(m.marks, MarkerWireframe(m.state), m.view)
}

func (m Model) status(p palette) string {
	switch {
	case m.err != nil:
		return p.Failed.Render("UNSTABLE")
	case !m.running:
		return p.Paused.Render("PAUSED")
	case m.recorder != nil:
		return p.Failed.Render("● REC")
	default:
		return p.Running.Render("RUNNING")
	}
}

func (m Model) mode() string {
	switch {
	case m.cutting && m.grabbing:
		return "cut+grab"
	case m.cutting:
		return "cut"
	case m.grabbing:
		return "grab"
	}
	return "idle"
}

func (m Model) View() string {
	p := stylesFor(CurrentTheme)
	thread := lipgloss.NewStyle().Foreground(CurrentTheme.Thread(m.stretch.Max()))
	canvasView := canvasStyle.Render(Overlay(m.canvas, m.marks, thread, p.Pin))

	var s strings.Builder
	s.WriteString(p.Header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status(p) + "\n\n")

	row := func(label, value string) {
		s.WriteString(p.Label.Render(label) + p.Value.Render(value) + "\n")
	}
	row("Tick", fmt.Sprintf("%d", m.state.Tick))
	row("Time", fmt.Sprintf("%.2fs", m.state.Time))
	row("Particles", fmt.Sprintf("%d", len(m.state.Particles)))
	row("Connectors", fmt.Sprintf("%d", len(m.state.Connectors)))
	if m.state.Broken > 0 {
		s.WriteString(p.Label.Render("Broken") + p.Torn.Render(fmt.Sprintf("%d", m.state.Broken)) + "\n")
	} else {
		row("Broken", "0")
	}
	row("Max stretch", fmt.Sprintf("%.3f", m.stretch.Max()))
	s.WriteString(p.Label.Render("") + StretchBar(m.stretch.Max(), 20, CurrentTheme) + "\n")
	row("Pointer", p.Pointer.Render(fmt.Sprintf("%.1f, %.1f  %s", m.pointer.X, m.pointer.Y, m.mode())))
	if m.state.Grabbed >= 0 {
		row("Holding", p.Pin.Render(fmt.Sprintf("#%d", m.state.Grabbed)))
	}

	if len(m.stretchHistory) > 1 {
		chart := asciigraph.Plot(m.stretchHistory, asciigraph.Height(5), asciigraph.Width(32), asciigraph.Caption("mean stretch"))
		s.WriteString(graphStyle.Render(chart) + "\n")
		s.WriteString(p.Label.Render("Breakage") + SparklineChart(m.brokenHistory, 28) + "\n")
	}

	if m.err != nil {
		s.WriteString("\n" + p.Failed.Render(m.err.Error()) + "\n")
	}

	s.WriteString("\n" + Separator(40) + "\n")
	s.WriteString(p.Hint.Render("LMB:Cut RMB:Grab SP:Pause R:Reset Q:Quit\nX/Y/Z:Rotate +/-:Zoom F:Frame T:Theme G:GIF ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, p.Panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║            CONTROLS                  ║
╠══════════════════════════════════════╣
║  Left mouse  - Cut connectors        ║
║  Right mouse - Grab and drag         ║
║  Space       - Pause/Resume          ║
║  R           - Reset the cloth       ║
║  X / Y / Z   - Rotate camera         ║
║  + / -       - Zoom                  ║
║  F           - Reframe               ║
║  T           - Cycle themes          ║
║  G           - Toggle GIF recording  ║
║  Q           - Quit                  ║
╚══════════════════════════════════════╝`
