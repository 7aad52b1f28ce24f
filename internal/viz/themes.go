package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// tautStretch is the length/rest ratio at which a thread reaches the Taut
// colour.
const tautStretch = 1.5

// Theme colours the live view. Threads blend from Slack to Taut as the
// cloth stretches; Pin marks pinned and held particles.
type Theme struct {
	Name    string
	Slack   lipgloss.Color
	Taut    lipgloss.Color
	Torn    lipgloss.Color
	Pin     lipgloss.Color
	Pointer lipgloss.Color
	Calm    lipgloss.Color
	Frame   lipgloss.Color
	Text    lipgloss.Color
	Dim     lipgloss.Color
}

var (
	ThemeLoom = Theme{
		Name:    "loom",
		Slack:   lipgloss.Color("#8fb8de"),
		Taut:    lipgloss.Color("#f25f5c"),
		Torn:    lipgloss.Color("#ff3b30"),
		Pin:     lipgloss.Color("#ffd166"),
		Pointer: lipgloss.Color("#06d6a0"),
		Calm:    lipgloss.Color("#06d6a0"),
		Frame:   lipgloss.Color("#5c7aa3"),
		Text:    lipgloss.Color("#eef3f8"),
		Dim:     lipgloss.Color("#6b7f99"),
	}

	ThemeLinen = Theme{
		Name:    "linen",
		Slack:   lipgloss.Color("#e8e2d0"),
		Taut:    lipgloss.Color("#c0392b"),
		Torn:    lipgloss.Color("#e74c3c"),
		Pin:     lipgloss.Color("#2980b9"),
		Pointer: lipgloss.Color("#27ae60"),
		Calm:    lipgloss.Color("#27ae60"),
		Frame:   lipgloss.Color("#a89f8a"),
		Text:    lipgloss.Color("#fbf8f0"),
		Dim:     lipgloss.Color("#8c8474"),
	}

	ThemePhosphor = Theme{
		Name:    "phosphor",
		Slack:   lipgloss.Color("#1f9e3a"),
		Taut:    lipgloss.Color("#c6ff7a"),
		Torn:    lipgloss.Color("#ff4040"),
		Pin:     lipgloss.Color("#ffffff"),
		Pointer: lipgloss.Color("#7dff9a"),
		Calm:    lipgloss.Color("#7dff9a"),
		Frame:   lipgloss.Color("#0f5a20"),
		Text:    lipgloss.Color("#39ff5a"),
		Dim:     lipgloss.Color("#1a6b2c"),
	}

	ThemeEmber = Theme{
		Name:    "ember",
		Slack:   lipgloss.Color("#b5651d"),
		Taut:    lipgloss.Color("#ffe066"),
		Torn:    lipgloss.Color("#ff2e63"),
		Pin:     lipgloss.Color("#a0e7e5"),
		Pointer: lipgloss.Color("#ff9f1c"),
		Calm:    lipgloss.Color("#ffbf69"),
		Frame:   lipgloss.Color("#6d3b1e"),
		Text:    lipgloss.Color("#fff1e0"),
		Dim:     lipgloss.Color("#8d6346"),
	}

	ThemeTide = Theme{
		Name:    "tide",
		Slack:   lipgloss.Color("#2a9d8f"),
		Taut:    lipgloss.Color("#e9c46a"),
		Torn:    lipgloss.Color("#e76f51"),
		Pin:     lipgloss.Color("#f4f1de"),
		Pointer: lipgloss.Color("#8ecae6"),
		Calm:    lipgloss.Color("#8ecae6"),
		Frame:   lipgloss.Color("#264653"),
		Text:    lipgloss.Color("#e0f4f1"),
		Dim:     lipgloss.Color("#4f7f87"),
	}

	Themes = []Theme{ThemeLoom, ThemeLinen, ThemePhosphor, ThemeEmber, ThemeTide}

	CurrentTheme = ThemeLoom
)

// Thread returns the colour of a connector at the given length/rest ratio.
func (t Theme) Thread(stretch float64) lipgloss.Color {
	f := (stretch - 1) / (tautStretch - 1)
	switch {
	case math.IsNaN(f) || f <= 0:
		return t.Slack
	case f >= 1:
		return t.Taut
	}
	slack, err := colorful.Hex(string(t.Slack))
	if err != nil {
		return t.Slack
	}
	taut, err := colorful.Hex(string(t.Taut))
	if err != nil {
		return t.Slack
	}
	return lipgloss.Color(slack.BlendLab(taut, f).Clamped().Hex())
}

func LookupTheme(name string) (Theme, bool) {
	for _, t := range Themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// SetTheme makes the named theme current.
func SetTheme(name string) error {
	t, ok := LookupTheme(name)
	if !ok {
		return fmt.Errorf("unknown theme %q (have %s)", name, strings.Join(ThemeNames(), ", "))
	}
	CurrentTheme = t
	return nil
}

// NextTheme cycles to the theme after the current one.
func NextTheme() Theme {
	next := 0
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			next = (i + 1) % len(Themes)
			break
		}
	}
	CurrentTheme = Themes[next]
	return CurrentTheme
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
