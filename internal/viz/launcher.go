package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/experiment"
)

var presetInfo = map[string]string{
	"curtain": "wide sheet pinned along the top",
	"hammock": "horizontal sheet held at both sides",
	"net":     "coarse grid hanging from two corners",
	"tear":    "heavy cloth that rips under its own weight",
	"stiff":   "many solver passes, little stretch",
}

const (
	stateMenu = iota
	stateSim
)

// Launcher is a preset picker that hands over to the live Model.
type Launcher struct {
	state    int
	cursor   int
	presets  []string
	registry *experiment.Registry
	live     Model
	err      error
}

func NewLauncher(registry *experiment.Registry) *Launcher {
	return &Launcher{presets: config.ListPresets(), registry: registry}
}

func (l Launcher) Init() tea.Cmd { return nil }

func (l Launcher) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if l.state == stateSim {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			l.state = stateMenu
			return l, nil
		}
		next, cmd := l.live.Update(msg)
		l.live = next.(Model)
		return l, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return l, tea.Quit
	case "up", "k":
		if l.cursor > 0 {
			l.cursor--
		}
	case "down", "j":
		if l.cursor < len(l.presets)-1 {
			l.cursor++
		}
	case "enter", " ":
		return l.start()
	}
	return l, nil
}

func (l Launcher) start() (tea.Model, tea.Cmd) {
	name := l.presets[l.cursor]
	exp := experiment.New(config.GetPreset(name), l.registry)
	if err := exp.Setup(); err != nil {
		l.err = err
		return l, nil
	}
	l.err = nil
	l.live = NewModel(exp, name)
	l.state = stateSim
	return l, l.live.Init()
}

func (l Launcher) View() string {
	if l.state == stateSim {
		return l.live.View()
	}

	p := stylesFor(CurrentTheme)
	var s strings.Builder
	s.WriteString(p.Header.Render("CLOTHSIM") + "\n\n")
	for i, name := range l.presets {
		cursor := "  "
		line := p.Label.Render(name) + p.Hint.Render(presetInfo[name])
		if i == l.cursor {
			cursor = p.Pointer.Render("▸ ")
			line = p.Value.Render(fmt.Sprintf("%-12s", name)) + p.Hint.Render(presetInfo[name])
		}
		s.WriteString(cursor + line + "\n")
	}
	if l.err != nil {
		s.WriteString("\n" + p.Failed.Render(l.err.Error()) + "\n")
	}
	s.WriteString("\n" + p.Hint.Render("↑/↓ select • enter start • esc back to menu • q quit"))
	return lipgloss.NewStyle().Padding(1, 2).Render(s.String())
}
