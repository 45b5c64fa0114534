// Package render draws the tracked joints onto an image for the live preview.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/skeleton"
)

// Default preview size.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// DotRadius is the radius of a joint marker in pixels.
const DotRadius = 10

// Joint marker colors.
var (
	HeadColor      = color.RGBA{G: 200, A: 255}
	RightHandColor = color.RGBA{B: 255, A: 255}
	LeftHandColor  = color.RGBA{R: 255, A: 255}
	labelColor     = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	background     = gocv.NewScalar(24, 24, 24, 0)
)

// Renderer draws bodies onto a fixed-size canvas.
type Renderer struct {
	Width  int
	Height int
}

// New creates a Renderer. Non-positive sizes select the defaults.
func New(width, height int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{Width: width, Height: height}
}

// ToPixel maps sensor coordinates onto the canvas. Sensor x and y span
// roughly [-1, 1] with y pointing up; the canvas origin is the top left.
func (r *Renderer) ToPixel(v skeleton.Vector3) image.Point {
	w := float64(r.Width)
	h := float64(r.Height)
	return image.Pt(
		int(0.5*(w+w*v.X)),
		int(0.5*(h-h*v.Y)),
	)
}

// Draw renders body onto a new Mat. The caller must Close it.
// A non-empty label is written in the top-left corner.
func (r *Renderer) Draw(body skeleton.Body, label string) gocv.Mat {
	img := gocv.NewMatWithSizeFromScalar(background, r.Height, r.Width, gocv.MatTypeCV8UC3)

	gocv.Circle(&img, r.ToPixel(body.Head), DotRadius, HeadColor, -1)
	gocv.Circle(&img, r.ToPixel(body.RightHand), DotRadius, RightHandColor, -1)
	gocv.Circle(&img, r.ToPixel(body.LeftHand), DotRadius, LeftHandColor, -1)

	if label != "" {
		gocv.PutText(&img, label, image.Pt(10, 24), gocv.FontHersheySimplex, 0.6, labelColor, 1)
	}

	return img
}

// EncodeJPEG renders body and encodes it as a JPEG image.
func (r *Renderer) EncodeJPEG(body skeleton.Body, label string) ([]byte, error) {
	img := r.Draw(body, label)
	defer img.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close
	return append([]byte(nil), buf.GetBytes()...), nil
}
