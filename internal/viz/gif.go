package viz

import (
	"image"
	"image/color"
	"image/gif"
	"os"
)

const (
	dotW = 4
	dotH = 4
)

// Recorder collects canvas frames into an animated GIF.
type Recorder struct {
	frames []*image.Paletted
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Frames() int { return len(r.frames) }

// Capture rasterizes each braille dot lit in any layer as a dotW by dotH
// block. The first layer sets the frame size.
func (r *Recorder) Capture(layers ...*Canvas) {
	if len(layers) == 0 {
		return
	}
	sw, sh := layers[0].Width*2, layers[0].Height*4
	img := image.NewPaletted(image.Rect(0, 0, sw*dotW, sh*dotH), color.Palette{color.Black, color.White})
	for y := 0; y < sh; y++ {
		for x := 0; x < sw; x++ {
			if !anySet(layers, x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

func anySet(layers []*Canvas, x, y int) bool {
	for _, c := range layers {
		if c.IsSet(x, y) {
			return true
		}
	}
	return false
}

func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}
