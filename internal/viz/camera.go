package viz

import (
	"math"
	"sort"

	"github.com/san-kum/clothsim/internal/cloth"
)

// Camera orbits the scene origin and projects with a simple perspective divide.
type Camera struct {
	RotX, RotY, RotZ float64
	Zoom             float64
	Distance         float64
	Near             float64
}

func NewCamera() *Camera {
	return &Camera{Zoom: 1.0, Distance: 50, Near: 0.1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// RotatePoint applies the X, Y then Z rotations.
func (c *Camera) RotatePoint(p cloth.Vec3) cloth.Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// UnrotatePoint is the inverse of RotatePoint.
func (c *Camera) UnrotatePoint(p cloth.Vec3) cloth.Vec3 {
	cz, sz := math.Cos(-c.RotZ), math.Sin(-c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	cy, sy := math.Cos(-c.RotY), math.Sin(-c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cx, sx := math.Cos(-c.RotX), math.Sin(-c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

// Project maps p onto a sw by sh screen where unit screen pixels span one
// world unit at the focal plane. It returns x, y, depth and visibility.
func (c *Camera) Project(p cloth.Vec3, sw, sh int, unit float64) (float64, float64, float64, bool) {
	rot := c.RotatePoint(p).Scale(c.Zoom)
	if rot.Z >= c.Distance-c.Near {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z)
	sx := rot.X*scale*unit + float64(sw)/2
	sy := -rot.Y*scale*unit + float64(sh)/2
	return sx, sy, rot.Z, sx >= 0 && sx < float64(sw) && sy >= 0 && sy < float64(sh)
}

// View binds a camera to a canvas of Cols by Rows terminal cells and frames
// the cloth around Center. It implements cloth.Projector in cell units, so
// terminal mouse coordinates can be used as the pointer directly.
type View struct {
	Camera *Camera
	Cols   int
	Rows   int
	Center cloth.Vec3
	// Span is the world extent that fills the shorter canvas side.
	Span float64
}

// NewView frames the given state.
func NewView(cols, rows int, st *cloth.State) *View {
	v := &View{Camera: NewCamera(), Cols: cols, Rows: rows, Span: 1}
	v.Frame(st)
	return v
}

// Frame centres the view on the particles' bounding box.
func (v *View) Frame(st *cloth.State) {
	if st == nil || len(st.Particles) == 0 {
		return
	}
	lo, hi := st.Particles[0].Position, st.Particles[0].Position
	for _, p := range st.Particles[1:] {
		lo = cloth.Vec3{X: math.Min(lo.X, p.Position.X), Y: math.Min(lo.Y, p.Position.Y), Z: math.Min(lo.Z, p.Position.Z)}
		hi = cloth.Vec3{X: math.Max(hi.X, p.Position.X), Y: math.Max(hi.Y, p.Position.Y), Z: math.Max(hi.Z, p.Position.Z)}
	}
	v.Center = lo.Add(hi).Scale(0.5)
	// leave room for the cloth to sag
	v.Span = math.Max(hi.Sub(lo).Length()*1.4, 1)
	v.Camera.Distance = 3 * v.Span
}

func (v *View) screen() (int, int) { return v.Cols * 2, v.Rows * 4 }

// unit is sub-pixels per world unit.
func (v *View) unit() float64 {
	sw, sh := v.screen()
	return math.Min(float64(sw), float64(sh)) / v.Span
}

// Pixel projects to canvas sub-pixels.
func (v *View) Pixel(p cloth.Vec3) (float64, float64, float64, bool) {
	sw, sh := v.screen()
	return v.Camera.Project(p.Sub(v.Center), sw, sh, v.unit())
}

// Project returns the terminal cell position of p.
func (v *View) Project(p cloth.Vec3) cloth.Vec2 {
	x, y, _, _ := v.Pixel(p)
	return cloth.Vec2{X: x / 2, Y: y / 4}
}

// Orient converts a drag measured in cells into a world displacement on the
// focal plane.
func (v *View) Orient(d cloth.Vec3) cloth.Vec3 {
	k := v.unit() * v.Camera.Zoom
	return v.Camera.UnrotatePoint(cloth.Vec3{X: d.X * 2 / k, Y: -d.Y * 4 / k})
}

type Edge struct {
	Start, End cloth.Vec3
	Point      bool
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe               { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e cloth.Vec3) { w.Edges = append(w.Edges, Edge{Start: s, End: e}) }
func (w *Wireframe) AddPoint(p cloth.Vec3)   { w.Edges = append(w.Edges, Edge{Start: p, End: p, Point: true}) }
func (w *Wireframe) Clear()                  { w.Edges = w.Edges[:0] }

// ClothWireframe collects the enabled connectors.
func ClothWireframe(st *cloth.State) *Wireframe {
	w := NewWireframe()
	for _, c := range st.Connectors {
		if c.Enabled {
			w.AddEdge(c.From, c.To)
		}
	}
	return w
}

// MarkerWireframe collects the pinned particles and the held one.
func MarkerWireframe(st *cloth.State) *Wireframe {
	w := NewWireframe()
	for i, p := range st.Particles {
		if p.Pinned || i == st.Grabbed {
			w.AddPoint(p.Position)
		}
	}
	return w
}

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
	point          bool
}

// Render3D draws the wireframe far to near.
func Render3D(c *Canvas, w *Wireframe, v *View) {
	if c == nil || w == nil || v == nil {
		return
	}
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, ok1 := v.Pixel(e.Start)
		x2, y2, d2, ok2 := v.Pixel(e.End)
		if ok1 || ok2 {
			proj = append(proj, projectedEdge{int(x1), int(y1), int(x2), int(y2), (d1 + d2) / 2, e.Point})
		}
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, e := range proj {
		switch {
		case e.point:
			c.Dot(e.x1, e.y1)
		case e.x1 == e.x2 && e.y1 == e.y2:
			c.Set(e.x1, e.y1)
		default:
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}
