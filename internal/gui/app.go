package gui

import (
	"fmt"
	"log"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/experiment"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColGrid    = rl.NewColor(30, 30, 30, 255)
	ColPin     = rl.NewColor(220, 60, 60, 255)
)

const (
	screenW    = 1280
	screenH    = 720
	maxSamples = 200
)

// App is the raylib front end. It steps the experiment once per frame with
// the mouse as pointer: left button cuts, right button grabs.
type App struct {
	Exp       *experiment.Experiment
	Name      string
	State     *cloth.State
	Camera    rl.Camera3D
	Running   bool
	InMenu    bool
	Presets   []string
	Selected  int
	Telemetry []float64
	Font      rl.Font
	Err       error

	CamPosTarget rl.Vector3
	CamTgtTarget rl.Vector3
}

func initWindow() {
	rl.InitWindow(screenW, screenH, "clothsim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

func loadFont() rl.Font {
	font := rl.LoadFontEx("/usr/share/fonts/liberation/LiberationMono-Regular.ttf", 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

func NewApp() *App {
	return &App{
		Presets:   config.ListPresets(),
		Font:      loadFont(),
		InMenu:    true,
		Telemetry: make([]float64, 0, maxSamples),
	}
}

// RunInteractive opens the preset menu.
func RunInteractive() {
	initWindow()
	defer rl.CloseWindow()
	NewApp().RunLoop()
}

// Run opens a window on a prepared experiment.
func Run(exp *experiment.Experiment, name string) {
	initWindow()
	defer rl.CloseWindow()
	app := NewApp()
	app.attach(exp, name)
	app.RunLoop()
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeyQ) {
			return
		}
		a.Update()
		a.Draw()
	}
}

func (a *App) loadPreset(name string) {
	exp := experiment.New(config.GetPreset(name), nil)
	if err := exp.Setup(); err != nil {
		log.Printf("preset %s: %v", name, err)
		a.Err = err
		return
	}
	a.attach(exp, name)
}

func (a *App) attach(exp *experiment.Experiment, name string) {
	a.Exp = exp
	a.Name = name
	a.State = exp.Simulator().State()
	a.Err = nil
	a.Telemetry = a.Telemetry[:0]

	exp.SetProjector(&screenProjector{app: a})
	exp.Interaction().GrabScale = 1

	a.frame()
	a.InMenu = false
	a.Running = true
}

// frame points the camera at the middle of the cloth from far enough away to
// see all of it.
func (a *App) frame() {
	lo, hi := a.State.Particles[0].Position, a.State.Particles[0].Position
	for _, p := range a.State.Particles {
		lo = cloth.Vec3{X: math.Min(lo.X, p.Position.X), Y: math.Min(lo.Y, p.Position.Y), Z: math.Min(lo.Z, p.Position.Z)}
		hi = cloth.Vec3{X: math.Max(hi.X, p.Position.X), Y: math.Max(hi.Y, p.Position.Y), Z: math.Max(hi.Z, p.Position.Z)}
	}
	center := lo.Add(hi).Scale(0.5)
	span := math.Max(hi.Sub(lo).Length(), 1)

	target := vec(center.Add(cloth.Vec3{Y: -span * 0.3}))
	position := vec(center.Add(cloth.Vec3{Y: span * 0.2, Z: span * 1.6}))
	a.Camera = rl.NewCamera3D(position, target, rl.NewVector3(0, 1, 0), 45.0, rl.CameraPerspective)
	a.CamPosTarget = a.Camera.Position
	a.CamTgtTarget = a.Camera.Target
}

func (a *App) Update() {
	if a.InMenu {
		a.updateMenu()
		return
	}

	if rl.IsKeyPressed(rl.KeyEscape) {
		a.InMenu = true
		a.Running = false
		return
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Running = !a.Running
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.Exp.Simulator().Reset()
		a.State = a.Exp.Simulator().State()
		a.Telemetry = a.Telemetry[:0]
	}

	if a.Running {
		a.step()
	}
	a.updateCamera()
}

func (a *App) updateMenu() {
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.Selected = (a.Selected + 1) % len(a.Presets)
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.Selected--
		if a.Selected < 0 {
			a.Selected = len(a.Presets) - 1
		}
	}
	if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
		a.loadPreset(a.Presets[a.Selected])
	}
	if rl.IsKeyPressed(rl.KeyEscape) && a.Exp != nil {
		a.InMenu = false
		a.Running = true
	}
}

func (a *App) step() {
	mouse := rl.GetMousePosition()
	in := cloth.Input{
		Pointer: cloth.Vec2{X: float64(mouse.X), Y: float64(mouse.Y)},
		Cut:     rl.IsMouseButtonDown(rl.MouseLeftButton),
		Grab:    rl.IsMouseButtonDown(rl.MouseRightButton),
	}

	st, err := a.Exp.Step(in)
	if err != nil {
		a.Err = err
		return
	}
	a.Err = nil
	a.State = st

	a.Exp.Stretch().Observe(st)
	a.Telemetry = append(a.Telemetry, a.Exp.Stretch().Value())
	if len(a.Telemetry) > maxSamples {
		a.Telemetry = a.Telemetry[1:]
	}
}

// updateCamera moves with WASD, zooms with the wheel and eases toward the
// targets.
func (a *App) updateCamera() {
	const pan = 0.1
	if rl.IsKeyDown(rl.KeyW) {
		a.CamPosTarget.Y += pan
	}
	if rl.IsKeyDown(rl.KeyS) {
		a.CamPosTarget.Y -= pan
	}
	if rl.IsKeyDown(rl.KeyA) {
		a.CamPosTarget.X -= pan
	}
	if rl.IsKeyDown(rl.KeyD) {
		a.CamPosTarget.X += pan
	}

	wheel := rl.GetMouseWheelMove()
	if wheel != 0 {
		zoom := wheel * 0.5
		diff := rl.Vector3Subtract(a.CamTgtTarget, a.CamPosTarget)
		if rl.Vector3Length(diff) > 1.0 || zoom < 0 {
			a.CamPosTarget = rl.Vector3Add(a.CamPosTarget, rl.Vector3Scale(rl.Vector3Normalize(diff), zoom))
		}
	}

	lerp := float32(5.0 * rl.GetFrameTime())
	if lerp > 1.0 {
		lerp = 1.0
	}
	a.Camera.Position = rl.Vector3Lerp(a.Camera.Position, a.CamPosTarget, lerp)
	a.Camera.Target = rl.Vector3Lerp(a.Camera.Target, a.CamTgtTarget, lerp)
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if a.InMenu {
		a.drawMenu()
	} else {
		a.drawSim()
		a.DrawHUD()
	}

	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	a.drawText("clothsim", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.Name), 160, 34, 16, ColText)

	a.drawText(fmt.Sprintf("tick   %d", a.State.Tick), 30, 80, 16, ColText)
	a.drawText(fmt.Sprintf("broken %d / %d", a.State.Broken, len(a.State.Connectors)), 30, 104, 16, ColText)
	a.drawText(fmt.Sprintf("max    %.3f", a.Exp.Stretch().Max()), 30, 128, 16, ColText)
	if a.State.Grabbed >= 0 {
		a.drawText(fmt.Sprintf("holding #%d", a.State.Grabbed), 30, 152, 16, ColAccent)
	}

	a.DrawTelemetry()

	status, col := "RUNNING", ColSelect
	switch {
	case a.Err != nil:
		status, col = "UNSTABLE", ColPin
	case !a.Running:
		status, col = "PAUSED", ColTextDim
	}
	a.drawText(status, 1150, 30, 16, col)

	a.drawText("[LMB] CUT  [RMB] GRAB  [SPACE] PAUSE  [R] RESET  [ESC] MENU  [Q] QUIT", 560, 680, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 680, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

func (a *App) drawMenu() {
	a.drawText("clothsim", 50, 50, 40, ColSelect)
	a.drawText("Select Preset", 50, 100, 16, ColTextDim)

	y := 160
	for i, name := range a.Presets {
		if i == a.Selected {
			a.drawText(fmt.Sprintf("> %s", name), 50, y, 20, ColSelect)
		} else {
			a.drawText(fmt.Sprintf("  %s", name), 50, y, 20, ColText)
		}
		y += 28
	}
	if a.Err != nil {
		a.drawText(a.Err.Error(), 50, y+20, 16, ColPin)
	}

	a.drawText("ARROWS: NAVIGATE  ENTER: SELECT  Q: QUIT", 850, 680, 14, ColTextDim)
}
