package gui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/clothsim/internal/cloth"
)

func vec(v cloth.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(v.X), float32(v.Y), float32(v.Z))
}

// screenProjector maps through the live raylib camera, so the pointer is in
// window pixels.
type screenProjector struct {
	app *App
}

func (p *screenProjector) Project(v cloth.Vec3) cloth.Vec2 {
	s := rl.GetWorldToScreen(vec(v), p.app.Camera)
	return cloth.Vec2{X: float64(s.X), Y: float64(s.Y)}
}

// Orient turns a pixel drag into a displacement on the plane through the
// camera target facing the camera.
func (p *screenProjector) Orient(d cloth.Vec3) cloth.Vec3 {
	cam := p.app.Camera
	forward := rl.Vector3Subtract(cam.Target, cam.Position)
	dist := rl.Vector3Length(forward)
	right := rl.Vector3Normalize(rl.Vector3CrossProduct(forward, cam.Up))
	up := rl.Vector3Normalize(rl.Vector3CrossProduct(right, forward))

	perPixel := 2 * float64(dist) * tanHalf(cam.Fovy) / float64(rl.GetScreenHeight())
	move := rl.Vector3Add(
		rl.Vector3Scale(right, float32(d.X*perPixel)),
		rl.Vector3Scale(up, float32(-d.Y*perPixel)),
	)
	return cloth.Vec3{X: float64(move.X), Y: float64(move.Y), Z: float64(move.Z)}
}

// RenderCloth draws enabled connectors, coloured by stretch, and marks
// pinned and grabbed particles.
func (a *App) RenderCloth() {
	for _, c := range a.State.Connectors {
		if !c.Enabled {
			continue
		}
		rl.DrawLine3D(vec(c.From), vec(c.To), stretchColor(c.Stretch()))
	}
	for i, p := range a.State.Particles {
		switch {
		case i == a.State.Grabbed:
			rl.DrawSphere(vec(p.Position), 0.08, ColSelect)
		case p.Pinned:
			rl.DrawSphere(vec(p.Position), 0.05, ColPin)
		}
	}
}

// stretchColor fades from grey at rest to white near twice the rest length.
func stretchColor(s float64) rl.Color {
	t := s - 1
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	v := uint8(140 + t*115)
	return rl.NewColor(v, v, v, 255)
}

func (a *App) drawSim() {
	rl.BeginMode3D(a.Camera)
	a.RenderCloth()
	rl.EndMode3D()
}

// DrawTelemetry plots mean stretch over the last frames.
func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}

	rectX, rectY := 30, 600
	width, height := 400, 60

	minVal, maxVal := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := float32(rectX) + (float32(i)/float32(len(a.Telemetry)))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("stretch %.3f", a.Telemetry[len(a.Telemetry)-1]), rectX+width+10, rectY+height-10, 14, ColText)
}

func tanHalf(fovyDeg float32) float64 {
	return math.Tan(float64(fovyDeg) * math.Pi / 360)
}
