package imagepkg

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

// Canvas is the raster Surface. Shapes are rasterized into coverage masks
// with x/image/vector, intersected with the active clip and composited over
// an RGBA buffer of physical size.
type Canvas struct {
	img   *image.RGBA
	scale float64
	clips []*image.Alpha
	faces *faceCache
}

// NewCanvas returns a transparent canvas of w×h logical pixels at scale.
func NewCanvas(fonts *Fonts, w, h int, scale float64) *Canvas {
	pw, ph := int(math.Round(float64(w)*scale)), int(math.Round(float64(h)*scale))
	return &Canvas{
		img:   image.NewRGBA(image.Rect(0, 0, pw, ph)),
		scale: scale,
		faces: newFaceCache(fonts),
	}
}

// CanvasFactory adapts NewCanvas to a SurfaceFactory.
func CanvasFactory(fonts *Fonts) SurfaceFactory {
	return func(w, h int, scale float64) (Surface, error) {
		if w <= 0 || h <= 0 || scale <= 0 {
			return nil, errEmptyImage
		}
		return NewCanvas(fonts, w, h, scale), nil
	}
}

// Image exposes the physical pixel buffer.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Close releases the font faces created for this canvas.
func (c *Canvas) Close() { c.faces.close() }

func (c *Canvas) FillGradient(r Rect, x0, y0, x1, y1 float64, stops []ColorStop) {
	var p path
	p.rect(c.phys(r))
	s := c.scale
	c.paint(c.coverage(&p), newLinearGradient(x0*s, y0*s, x1*s, y1*s, stops))
}

func (c *Canvas) StrokeLine(x0, y0, x1, y1, width float64, col color.Color) {
	s := c.scale
	x0, y0, x1, y1, hw := x0*s, y0*s, x1*s, y1*s, width*s/2
	dx, dy := x1-x0, y1-y0
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*hw, dx/l*hw
	var p path
	p.moveTo(x0+nx, y0+ny)
	p.lineTo(x1+nx, y1+ny)
	p.lineTo(x1-nx, y1-ny)
	p.lineTo(x0-nx, y0-ny)
	p.close()
	c.paint(c.coverage(&p), image.NewUniform(col))
}

func (c *Canvas) FillRoundRect(r Rect, radius float64, col color.Color) {
	var p path
	p.roundRect(c.phys(r), radius*c.scale, false)
	c.paint(c.coverage(&p), image.NewUniform(col))
}

func (c *Canvas) StrokeRoundRect(r Rect, radius, width float64, col color.Color) {
	hw := width / 2
	outer := Rect{X: r.X - hw, Y: r.Y - hw, W: r.W + width, H: r.H + width}
	inner := Rect{X: r.X + hw, Y: r.Y + hw, W: r.W - width, H: r.H - width}
	var p path
	p.roundRect(c.phys(outer), (radius+hw)*c.scale, false)
	if inner.W > 0 && inner.H > 0 {
		// Opposite winding cuts the inner shape out of the outer one.
		p.roundRect(c.phys(inner), math.Max(radius-hw, 0)*c.scale, true)
	}
	c.paint(c.coverage(&p), image.NewUniform(col))
}

func (c *Canvas) PushClip(r Rect, radius float64) {
	var p path
	p.roundRect(c.phys(r), radius*c.scale, false)
	m := c.coverage(&p)
	if m == nil {
		m = image.NewAlpha(image.Rectangle{})
	}
	if cur := c.clip(); cur != nil {
		mulAlpha(m, cur)
	}
	c.clips = append(c.clips, m)
}

func (c *Canvas) PopClip() {
	if n := len(c.clips); n > 0 {
		c.clips = c.clips[:n-1]
	}
}

func (c *Canvas) DrawImage(img image.Image, dst Rect) error {
	b := img.Bounds()
	if b.Empty() {
		return errEmptyImage
	}
	pr := c.phys(dst)
	ox, oy := int(math.Round(pr.X)), int(math.Round(pr.Y))
	w, h := int(math.Round(pr.W)), int(math.Round(pr.H))
	if w <= 0 || h <= 0 {
		return errEmptyImage
	}
	scaled := imaging.Resize(img, w, h, imaging.Lanczos)
	target := image.Rect(ox, oy, ox+w, oy+h).Intersect(c.img.Bounds())
	if target.Empty() {
		return nil
	}
	sp := target.Min.Sub(image.Pt(ox, oy))
	if clip := c.clip(); clip != nil {
		draw.DrawMask(c.img, target, scaled, sp, clip, target.Min, draw.Over)
		return nil
	}
	draw.Draw(c.img, target, scaled, sp, draw.Over)
	return nil
}

func (c *Canvas) DrawText(s string, x, y float64, style TextStyle) {
	if s == "" {
		return
	}
	face, err := c.faces.face(style.Bold, style.Size*c.scale)
	if err != nil {
		return
	}
	px, py := x*c.scale, y*c.scale
	if style.Align == AlignCenter {
		px -= float64(font.MeasureString(face, s)) / 64 / 2
	}
	dot := fixed.Point26_6{X: fixed.Int26_6(math.Round(px * 64)), Y: fixed.Int26_6(math.Round(py * 64))}
	fb, _ := font.BoundString(face, s)
	box := image.Rect(
		(fb.Min.X + dot.X).Floor(), (fb.Min.Y + dot.Y).Floor(),
		(fb.Max.X + dot.X).Ceil(), (fb.Max.Y + dot.Y).Ceil(),
	).Intersect(c.img.Bounds())
	if box.Empty() {
		return
	}
	cov := image.NewAlpha(box)
	d := font.Drawer{Dst: cov, Src: image.Opaque, Face: face, Dot: dot}
	d.DrawString(s)
	c.paint(cov, image.NewUniform(style.Color))
}

func (c *Canvas) EncodePNG(w io.Writer) error {
	return imaging.Encode(w, c.img, imaging.PNG)
}

func (c *Canvas) phys(r Rect) Rect {
	s := c.scale
	return Rect{X: r.X * s, Y: r.Y * s, W: r.W * s, H: r.H * s}
}

func (c *Canvas) clip() *image.Alpha {
	if n := len(c.clips); n > 0 {
		return c.clips[n-1]
	}
	return nil
}

// coverage rasterizes p into a mask covering its bounding box, or nil when
// p lies outside the canvas.
func (c *Canvas) coverage(p *path) *image.Alpha {
	if len(p.ops) == 0 {
		return nil
	}
	box := image.Rect(
		int(math.Floor(p.minX)), int(math.Floor(p.minY)),
		int(math.Ceil(p.maxX)), int(math.Ceil(p.maxY)),
	).Intersect(c.img.Bounds())
	if box.Empty() {
		return nil
	}
	z := vector.NewRasterizer(box.Dx(), box.Dy())
	z.DrawOp = draw.Src
	p.replay(z, float64(box.Min.X), float64(box.Min.Y))
	m := image.NewAlpha(box)
	z.Draw(m, box, image.Opaque, image.Point{})
	return m
}

// paint composites src over the canvas through cov and the active clip.
func (c *Canvas) paint(cov *image.Alpha, src image.Image) {
	if cov == nil {
		return
	}
	if clip := c.clip(); clip != nil {
		mulAlpha(cov, clip)
	}
	draw.DrawMask(c.img, cov.Rect, src, cov.Rect.Min, cov, cov.Rect.Min, draw.Over)
}

// mulAlpha scales dst by m pixel-wise; pixels outside m become transparent.
func mulAlpha(dst, m *image.Alpha) {
	b := dst.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := dst.PixOffset(x, y)
			if !(image.Point{X: x, Y: y}).In(m.Rect) {
				dst.Pix[i] = 0
				continue
			}
			dst.Pix[i] = uint8((uint32(dst.Pix[i])*uint32(m.Pix[m.PixOffset(x, y)]) + 127) / 255)
		}
	}
}

const (
	opMove = iota
	opLine
	opCube
	opClose
)

type pathOp struct {
	kind int
	pts  [3][2]float64
}

// path records outline operations in physical pixels and tracks their
// bounding box.
type path struct {
	ops                    []pathOp
	minX, minY, maxX, maxY float64
}

func (p *path) grow(x, y float64) {
	if len(p.ops) == 0 {
		p.minX, p.minY, p.maxX, p.maxY = x, y, x, y
		return
	}
	p.minX, p.maxX = math.Min(p.minX, x), math.Max(p.maxX, x)
	p.minY, p.maxY = math.Min(p.minY, y), math.Max(p.maxY, y)
}

func (p *path) moveTo(x, y float64) {
	p.grow(x, y)
	p.ops = append(p.ops, pathOp{kind: opMove, pts: [3][2]float64{{x, y}}})
}

func (p *path) lineTo(x, y float64) {
	p.grow(x, y)
	p.ops = append(p.ops, pathOp{kind: opLine, pts: [3][2]float64{{x, y}}})
}

func (p *path) cubeTo(x1, y1, x2, y2, x3, y3 float64) {
	p.grow(x1, y1)
	p.grow(x2, y2)
	p.grow(x3, y3)
	p.ops = append(p.ops, pathOp{kind: opCube, pts: [3][2]float64{{x1, y1}, {x2, y2}, {x3, y3}}})
}

func (p *path) close() {
	p.ops = append(p.ops, pathOp{kind: opClose})
}

func (p *path) rect(r Rect) {
	p.moveTo(r.X, r.Y)
	p.lineTo(r.MaxX(), r.Y)
	p.lineTo(r.MaxX(), r.MaxY())
	p.lineTo(r.X, r.MaxY())
	p.close()
}

// roundRect adds a rounded rectangle, clockwise on screen unless ccw.
func (p *path) roundRect(r Rect, rad float64, ccw bool) {
	rad = math.Min(rad, math.Min(r.W, r.H)/2)
	if rad <= 0 {
		if ccw {
			p.moveTo(r.X, r.Y)
			p.lineTo(r.X, r.MaxY())
			p.lineTo(r.MaxX(), r.MaxY())
			p.lineTo(r.MaxX(), r.Y)
			p.close()
			return
		}
		p.rect(r)
		return
	}
	x0, y0, x1, y1, k := r.X, r.Y, r.MaxX(), r.MaxY(), rad*kappa
	p.moveTo(x0+rad, y0)
	if ccw {
		p.cubeTo(x0+rad-k, y0, x0, y0+rad-k, x0, y0+rad)
		p.lineTo(x0, y1-rad)
		p.cubeTo(x0, y1-rad+k, x0+rad-k, y1, x0+rad, y1)
		p.lineTo(x1-rad, y1)
		p.cubeTo(x1-rad+k, y1, x1, y1-rad+k, x1, y1-rad)
		p.lineTo(x1, y0+rad)
		p.cubeTo(x1, y0+rad-k, x1-rad+k, y0, x1-rad, y0)
	} else {
		p.lineTo(x1-rad, y0)
		p.cubeTo(x1-rad+k, y0, x1, y0+rad-k, x1, y0+rad)
		p.lineTo(x1, y1-rad)
		p.cubeTo(x1, y1-rad+k, x1-rad+k, y1, x1-rad, y1)
		p.lineTo(x0+rad, y1)
		p.cubeTo(x0+rad-k, y1, x0, y1-rad+k, x0, y1-rad)
		p.lineTo(x0, y0+rad)
		p.cubeTo(x0, y0+rad-k, x0+rad-k, y0, x0+rad, y0)
	}
	p.close()
}

// replay feeds the recorded outline to z, shifted by (-dx, -dy).
func (p *path) replay(z *vector.Rasterizer, dx, dy float64) {
	pt := func(v [2]float64) (float32, float32) {
		return float32(v[0] - dx), float32(v[1] - dy)
	}
	for _, op := range p.ops {
		switch op.kind {
		case opMove:
			x, y := pt(op.pts[0])
			z.MoveTo(x, y)
		case opLine:
			x, y := pt(op.pts[0])
			z.LineTo(x, y)
		case opCube:
			x1, y1 := pt(op.pts[0])
			x2, y2 := pt(op.pts[1])
			x3, y3 := pt(op.pts[2])
			z.CubeTo(x1, y1, x2, y2, x3, y3)
		case opClose:
			z.ClosePath()
		}
	}
}
