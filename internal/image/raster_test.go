package imagepkg

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = color.NRGBA{R: 255, A: 255}

func newTestCanvas(t *testing.T, w, h int, scale float64) *Canvas {
	t.Helper()
	c := NewCanvas(DefaultFonts(), w, h, scale)
	t.Cleanup(c.Close)
	return c
}

func TestCanvasPhysicalSize(t *testing.T) {
	c := newTestCanvas(t, Width, Height, Scale)
	assert.Equal(t, image.Rect(0, 0, 1432, 924), c.Image().Bounds())
}

func TestCanvasFillRoundRect(t *testing.T) {
	c := newTestCanvas(t, 100, 100, 1)
	c.FillRoundRect(Rect{X: 10, Y: 10, W: 50, H: 50}, 10, red)

	img := c.Image()
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(35, 35))
	assert.Equal(t, uint8(0), img.RGBAAt(10, 10).A, "rounded corner stays empty")
	assert.Equal(t, uint8(0), img.RGBAAt(5, 35).A)
	assert.Equal(t, uint8(0), img.RGBAAt(70, 35).A)
}

func TestCanvasStrokeRoundRectLeavesHole(t *testing.T) {
	c := newTestCanvas(t, 100, 100, 1)
	c.StrokeRoundRect(Rect{X: 10, Y: 10, W: 50, H: 50}, 7, 2, red)

	img := c.Image()
	assert.Equal(t, uint8(0), img.RGBAAt(35, 35).A)
	assert.Greater(t, img.RGBAAt(10, 35).A, uint8(250))
	assert.Greater(t, img.RGBAAt(9, 35).A, uint8(250))
	assert.Equal(t, uint8(0), img.RGBAAt(13, 35).A)
}

func TestCanvasClipRestrictsImage(t *testing.T) {
	c := newTestCanvas(t, 100, 100, 1)
	c.PushClip(Rect{W: 50, H: 100}, 0)
	require.NoError(t, c.DrawImage(solid(10, 10, color.NRGBA{B: 255, A: 255}), Rect{W: 100, H: 100}))
	c.PopClip()

	img := c.Image()
	in := img.RGBAAt(25, 50)
	assert.Greater(t, in.B, uint8(250))
	assert.Greater(t, in.A, uint8(250))
	assert.Equal(t, uint8(0), img.RGBAAt(75, 50).A)

	// Once popped, drawing is unrestricted again.
	c.FillRoundRect(Rect{X: 60, Y: 0, W: 40, H: 100}, 0, red)
	assert.Equal(t, uint8(255), img.RGBAAt(75, 50).A)
}

func TestCanvasNestedClipIntersects(t *testing.T) {
	c := newTestCanvas(t, 100, 100, 1)
	c.PushClip(Rect{W: 60, H: 100}, 0)
	c.PushClip(Rect{X: 40, W: 60, H: 100}, 0)
	c.FillRoundRect(Rect{W: 100, H: 100}, 0, red)
	c.PopClip()
	c.PopClip()

	img := c.Image()
	assert.Equal(t, uint8(0), img.RGBAAt(20, 50).A)
	assert.Equal(t, uint8(255), img.RGBAAt(50, 50).A)
	assert.Equal(t, uint8(0), img.RGBAAt(80, 50).A)
}

func TestCanvasDrawImageScales(t *testing.T) {
	c := newTestCanvas(t, 50, 50, 2)
	require.NoError(t, c.DrawImage(solid(5, 5, red), Rect{X: 10, Y: 10, W: 10, H: 10}))

	img := c.Image()
	assert.Greater(t, img.RGBAAt(30, 30).R, uint8(250))
	assert.Equal(t, uint8(0), img.RGBAAt(19, 30).A)
	assert.Equal(t, uint8(0), img.RGBAAt(41, 30).A)
}

func TestCanvasDrawImageRejectsEmpty(t *testing.T) {
	c := newTestCanvas(t, 10, 10, 1)
	assert.Error(t, c.DrawImage(image.NewNRGBA(image.Rectangle{}), Rect{W: 10, H: 10}))
	assert.Error(t, c.DrawImage(solid(2, 2, red), Rect{W: 0, H: 10}))
}

func TestCanvasGradient(t *testing.T) {
	c := newTestCanvas(t, 100, 10, 1)
	c.FillGradient(Rect{W: 100, H: 10}, 0, 0, 100, 0, []ColorStop{
		{Offset: 0, Color: color.Black},
		{Offset: 1, Color: color.White},
	})
	img := c.Image()
	assert.Less(t, img.RGBAAt(0, 5).R, uint8(10))
	assert.Greater(t, img.RGBAAt(99, 5).R, uint8(245))
	assert.InDelta(t, 128, int(img.RGBAAt(50, 5).R), 4)
}

func TestCanvasDrawTextPaintsInk(t *testing.T) {
	c := newTestCanvas(t, 200, 40, 1)
	c.DrawText("Hello", 100, 30, TextStyle{Size: 20, Bold: true, Color: red, Align: AlignCenter})

	img := c.Image()
	inked, left, right := 0, 200, 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 200; x++ {
			if img.RGBAAt(x, y).A > 0 {
				inked++
				left, right = min(left, x), max(right, x)
			}
		}
	}
	require.Positive(t, inked)
	// Centered text straddles x = 100.
	assert.Less(t, left, 100)
	assert.Greater(t, right, 100)
	assert.InDelta(t, 100-left, right-100, 6)
}

func TestCanvasEncodePNG(t *testing.T) {
	c := newTestCanvas(t, 4, 4, 1)
	var buf bytes.Buffer
	require.NoError(t, c.EncodePNG(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestCanvasFactoryRejectsBadSize(t *testing.T) {
	_, err := CanvasFactory(DefaultFonts())(0, 10, 1)
	assert.Error(t, err)
}
