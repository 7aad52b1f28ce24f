package cloth

// Input is the pointer snapshot sampled once at the start of a tick.
type Input struct {
	Pointer Vec2 `json:"pointer" yaml:"pointer"`
	Cut     bool `json:"cut" yaml:"cut"`
	Grab    bool `json:"grab" yaml:"grab"`
}

// Projector maps between simulation space and pointer space.
type Projector interface {
	// Project returns where p appears in pointer space.
	Project(p Vec3) Vec2
	// Orient turns a pointer-space direction into a simulation-space direction.
	Orient(v Vec3) Vec3
}

// Identity treats simulation XY as pointer space.
type Identity struct{}

func (Identity) Project(p Vec3) Vec2 { return Vec2{p.X, p.Y} }
func (Identity) Orient(v Vec3) Vec3  { return v }

// Ortho is an orthographic screen mapping: Scale pixels per unit, Origin
// being the screen position of the simulation origin. Screen Y grows
// downward.
type Ortho struct {
	Scale  float64
	Origin Vec2
}

func (o Ortho) Project(p Vec3) Vec2 {
	return Vec2{o.Origin.X + p.X*o.Scale, o.Origin.Y - p.Y*o.Scale}
}

func (o Ortho) Orient(v Vec3) Vec3 { return Vec3{v.X, -v.Y, v.Z} }
