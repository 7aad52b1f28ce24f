package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(canvasPadY, canvasPadX)

	statsStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			Width(44)

	graphStyle = lipgloss.NewStyle().Padding(1, 0)
)

const (
	canvasPadY = 1
	canvasPadX = 2
)

// palette is the set of styles derived from a theme.
type palette struct {
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Running lipgloss.Style
	Paused  lipgloss.Style
	Failed  lipgloss.Style
	Hint    lipgloss.Style
	Pointer lipgloss.Style
	Pin     lipgloss.Style
	Torn    lipgloss.Style
	Panel   lipgloss.Style
}

func stylesFor(t Theme) palette {
	return palette{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Frame),
		Label:   lipgloss.NewStyle().Foreground(t.Dim).Width(12),
		Value:   lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		Running: lipgloss.NewStyle().Bold(true).Foreground(t.Calm),
		Paused:  lipgloss.NewStyle().Bold(true).Foreground(t.Pointer),
		Failed:  lipgloss.NewStyle().Bold(true).Foreground(t.Torn),
		Hint:    lipgloss.NewStyle().Foreground(t.Dim).Italic(true),
		Pointer: lipgloss.NewStyle().Foreground(t.Pointer),
		Pin:     lipgloss.NewStyle().Bold(true).Foreground(t.Pin),
		Torn:    lipgloss.NewStyle().Bold(true).Foreground(t.Torn),
		Panel:   statsStyle.BorderForeground(t.Frame),
	}
}

// StretchBar fills as the worst connector approaches taut, in that
// connector's thread colour.
func StretchBar(stretch float64, width int, t Theme) string {
	filled := int((stretch - 1) / (tautStretch - 1) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(t.Thread(stretch)).Render(bar)
}

// Overlay renders base with top drawn over it. Cells lit in top are merged
// into base and take topStyle; the rest take baseStyle.
func Overlay(base, top *Canvas, baseStyle, topStyle lipgloss.Style) string {
	var b strings.Builder
	run := make([]rune, 0, base.Width)
	marked := false
	flush := func() {
		if len(run) == 0 {
			return
		}
		if marked {
			b.WriteString(topStyle.Render(string(run)))
		} else {
			b.WriteString(baseStyle.Render(string(run)))
		}
		run = run[:0]
	}

	for r, row := range base.Grid {
		for c, cell := range row {
			lit := top != nil && r < top.Height && c < top.Width && top.Grid[r][c] != brailleBlank
			if lit != marked {
				flush()
				marked = lit
			}
			if lit {
				cell |= top.Grid[r][c]
			}
			run = append(run, cell)
		}
		flush()
		if r < len(base.Grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// SparklineChart renders the last width values as a one line chart.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	rng := max - min
	if rng == 0 {
		rng = 1
	}

	var result strings.Builder
	for _, v := range values {
		idx := int((v - min) / rng * float64(len(chars)-1))
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		if idx < 0 {
			idx = 0
		}
		result.WriteRune(chars[idx])
	}
	return result.String()
}

func Separator(width int) string {
	mid := width / 2
	if mid < 3 {
		return strings.Repeat("─", width)
	}
	return strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3)
}
