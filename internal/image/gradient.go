package imagepkg

import (
	"image"
	"image/color"
	"math"
)

// linearGradient is an unbounded image whose color varies along the vector
// (x0,y0)→(x1,y1), given in physical pixels. Colors clamp past the ends.
type linearGradient struct {
	x0, y0, dx, dy, len2 float64
	stops                []nrgbaStop
}

type nrgbaStop struct {
	off float64
	c   color.NRGBA
}

func newLinearGradient(x0, y0, x1, y1 float64, stops []ColorStop) *linearGradient {
	g := &linearGradient{x0: x0, y0: y0, dx: x1 - x0, dy: y1 - y0}
	g.len2 = g.dx*g.dx + g.dy*g.dy
	for _, s := range stops {
		g.stops = append(g.stops, nrgbaStop{off: s.Offset, c: color.NRGBAModel.Convert(s.Color).(color.NRGBA)})
	}
	return g
}

func (g *linearGradient) ColorModel() color.Model { return color.NRGBAModel }

func (g *linearGradient) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

func (g *linearGradient) At(x, y int) color.Color {
	if len(g.stops) == 0 {
		return color.Transparent
	}
	t := 0.0
	if g.len2 > 0 {
		px, py := float64(x)+0.5-g.x0, float64(y)+0.5-g.y0
		t = (px*g.dx + py*g.dy) / g.len2
	}
	if t <= g.stops[0].off {
		return g.stops[0].c
	}
	for i := 1; i < len(g.stops); i++ {
		a, b := g.stops[i-1], g.stops[i]
		if t <= b.off {
			span := b.off - a.off
			if span <= 0 {
				return b.c
			}
			return lerpNRGBA(a.c, b.c, (t-a.off)/span)
		}
	}
	return g.stops[len(g.stops)-1].c
}

func lerpNRGBA(a, b color.NRGBA, t float64) color.NRGBA {
	it := 1 - t
	mix := func(p, q uint8) uint8 {
		return uint8(math.Round(float64(p)*it + float64(q)*t))
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// rgba builds a non-premultiplied color from CSS-style components.
func rgba(r, g, b uint8, a float64) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(a * 255))}
}

func hex(v uint32) color.NRGBA {
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
