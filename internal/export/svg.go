package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/viz"
)

const (
	background  = "#0a0a0a"
	threadColor = "#00ff00"
	pinColor    = "#ff4040"
)

func header(sb *strings.Builder, width, height float64) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))
}

// CanvasToSVG converts a braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	sw, sh := canvas.Width*2, canvas.Height*4
	var sb strings.Builder
	header(&sb, float64(sw)*scale, float64(sh)*scale)
	sb.WriteString(fmt.Sprintf("<g fill=\"%s\">\n", threadColor))

	dotRadius := scale * 0.4
	for y := 0; y < sh; y++ {
		for x := 0; x < sw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			sb.WriteString(fmt.Sprintf("<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// StateToSVG draws the enabled connectors of a state seen along -Z, fitted
// into width by height with a 10% margin. Pinned particles are marked.
func StateToSVG(st *cloth.State, width, height int) string {
	if st == nil || len(st.Particles) == 0 {
		return ""
	}

	minX, maxX := st.Particles[0].Position.X, st.Particles[0].Position.X
	minY, maxY := st.Particles[0].Position.Y, st.Particles[0].Position.Y
	for _, p := range st.Particles {
		minX, maxX = math.Min(minX, p.Position.X), math.Max(maxX, p.Position.X)
		minY, maxY = math.Min(minY, p.Position.Y), math.Max(maxY, p.Position.Y)
	}
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	scale := 0.8 * math.Min(float64(width), float64(height)) / span
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	point := func(v cloth.Vec3) (float64, float64) {
		return float64(width)/2 + (v.X-cx)*scale, float64(height)/2 - (v.Y-cy)*scale
	}

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	sb.WriteString(fmt.Sprintf("<g stroke=\"%s\" stroke-width=\"1\">\n", threadColor))
	for _, c := range st.Connectors {
		if !c.Enabled {
			continue
		}
		x1, y1 := point(c.From)
		x2, y2 := point(c.To)
		sb.WriteString(fmt.Sprintf("<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\"/>\n", x1, y1, x2, y2))
	}
	sb.WriteString("</g>\n")

	sb.WriteString(fmt.Sprintf("<g fill=\"%s\">\n", pinColor))
	for _, p := range st.Particles {
		if !p.Pinned {
			continue
		}
		x, y := point(p.Position)
		sb.WriteString(fmt.Sprintf("<circle cx=\"%.1f\" cy=\"%.1f\" r=\"2\"/>\n", x, y))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG plots a metric series against time.
func SeriesToSVG(times, values []float64, width, height int, strokeColor string) string {
	n := len(values)
	if len(times) < n {
		n = len(times)
	}
	if n < 2 {
		return ""
	}

	minX, maxX := times[0], times[n-1]
	minY, maxY := values[0], values[0]
	for _, v := range values[:n] {
		minY, maxY = math.Min(minY, v), math.Max(maxY, v)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor))

	for i := 0; i < n; i++ {
		x := (times[i] - minX) / rangeX * float64(width)
		y := float64(height) - (values[i]-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
