package imagepkg

import (
	"image"
	"image/color"
	"io"
)

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// TextStyle describes how DrawText paints a string. Size is in logical pixels.
type TextStyle struct {
	Size  float64
	Bold  bool
	Color color.Color
	Align Align
}

// ColorStop is a position in [0,1] along a gradient and its color.
type ColorStop struct {
	Offset float64
	Color  color.Color
}

// Surface is the drawing target the renderer paints on. Coordinates are
// logical; implementations apply their own pixel density.
type Surface interface {
	// FillGradient fills r with a linear gradient running from (x0,y0) to (x1,y1).
	FillGradient(r Rect, x0, y0, x1, y1 float64, stops []ColorStop)
	StrokeLine(x0, y0, x1, y1, width float64, c color.Color)
	FillRoundRect(r Rect, radius float64, c color.Color)
	StrokeRoundRect(r Rect, radius, width float64, c color.Color)
	// PushClip restricts later drawing to the rounded rectangle, intersected
	// with any clip already active, until the matching PopClip.
	PushClip(r Rect, radius float64)
	PopClip()
	// DrawImage scales img into dst.
	DrawImage(img image.Image, dst Rect) error
	// DrawText paints s with its baseline at y; x is the left edge or the
	// center depending on style.Align.
	DrawText(s string, x, y float64, style TextStyle)
	EncodePNG(w io.Writer) error
}

// SurfaceFactory creates a blank surface of the given logical size.
type SurfaceFactory func(w, h int, scale float64) (Surface, error)
