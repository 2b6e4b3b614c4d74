package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/youruser/mydozlesha/internal/brand"
	"github.com/youruser/mydozlesha/internal/grid"
)

// ErrRender is returned when no image could be produced at all.
var ErrRender = errors.New("render share image")

var (
	bgFrom       = hex(0x08080f)
	bgTo         = hex(0x0c0d20)
	guideColor   = rgba(99, 102, 241, 0.07)
	accent       = hex(0x6366f1)
	white        = hex(0xffffff)
	dividerColor = rgba(99, 102, 241, 0.35)
	panelColor   = rgba(255, 255, 255, 0.03)
	borderColor  = rgba(99, 102, 241, 0.22)
	fallbackFill = rgba(99, 102, 241, 0.12)
	shadeColor   = rgba(0, 0, 0, 0.82)
	badgeEmpty   = hex(0x2a2a40)
	badgeFilled  = rgba(255, 255, 255, 0.7)
	emptyInk     = hex(0x252540)
	footerColor  = rgba(99, 102, 241, 0.4)
)

const guidePitch = 36

// Handles holds the decoded image for each cell; nil means unavailable.
type Handles [grid.Size]image.Image

// Result is one rendered share image. It is built per export and not cached.
type Result struct {
	PNG     []byte
	Summary []string
	Width   int
	Height  int
}

// Renderer draws the share image onto surfaces created by NewSurface.
type Renderer struct {
	NewSurface SurfaceFactory
	Log        *slog.Logger
}

func NewRenderer(fonts *Fonts, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{NewSurface: CanvasFactory(fonts), Log: log}
}

// Compose loads the images for g from src and renders them.
func (r *Renderer) Compose(ctx context.Context, g grid.Grid, author string, src Source) (*Result, error) {
	return r.Render(ctx, g, author, Resolve(ctx, src, g, r.Log))
}

// Render paints g. Per-cell failures fall back to a flat fill; only surface
// creation or encoding failures are returned.
func (r *Renderer) Render(ctx context.Context, g grid.Grid, author string, h Handles) (*Result, error) {
	s, err := r.NewSurface(Width, Height, Scale)
	if err != nil {
		return nil, fmt.Errorf("%w: create surface: %v", ErrRender, err)
	}
	if c, ok := s.(interface{ Close() }); ok {
		defer c.Close()
	}

	drawBackground(s)
	drawHeader(s, author)
	for i, cell := range g.Cells() {
		r.drawCell(ctx, s, i, cell, h[i])
	}
	drawFooter(s)

	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrRender, err)
	}
	return &Result{
		PNG:     buf.Bytes(),
		Summary: grid.SummaryLines(g),
		Width:   Width,
		Height:  Height,
	}, nil
}

// HeaderTitle is the title line for author; blank names use the first-person form.
func HeaderTitle(author string) string {
	if a := strings.TrimSpace(author); a != "" {
		return fmt.Sprintf(brand.AuthorTitle, a)
	}
	return brand.Title
}

func drawBackground(s Surface) {
	s.FillGradient(Rect{W: Width, H: Height}, 0, 0, Width, Height, []ColorStop{
		{Offset: 0, Color: bgFrom},
		{Offset: 1, Color: bgTo},
	})
	for x := 0; x < Width; x += guidePitch {
		s.StrokeLine(float64(x), 0, float64(x), Height, 0.5, guideColor)
	}
	for y := 0; y < Height; y += guidePitch {
		s.StrokeLine(0, float64(y), Width, float64(y), 0.5, guideColor)
	}
}

func drawHeader(s Surface, author string) {
	s.DrawText(brand.Label, Width/2, Pad+16, TextStyle{Size: 10, Bold: true, Color: accent, Align: AlignCenter})
	s.DrawText(HeaderTitle(author), Width/2, Pad+44, TextStyle{Size: 18, Bold: true, Color: white, Align: AlignCenter})
	s.StrokeLine(Pad, Pad+56, Width-Pad, Pad+56, 1, dividerColor)
}

func drawFooter(s Surface) {
	s.DrawText(brand.Footer, Width/2, Height-14, TextStyle{Size: 9, Color: footerColor, Align: AlignCenter})
}

func (r *Renderer) drawCell(ctx context.Context, s Surface, i int, cell grid.Cell, img image.Image) {
	rc := CellRect(i)
	s.FillRoundRect(rc, Radius, panelColor)
	s.StrokeRoundRect(rc, Radius, 1, borderColor)

	badge := badgeEmpty
	switch {
	case !cell.Filled:
		s.DrawText(brand.EmptyGlyph, rc.X+rc.W/2, rc.Y+rc.H/2+4, TextStyle{Size: 22, Color: emptyInk, Align: AlignCenter})
		s.DrawText(brand.EmptyLabel, rc.X+rc.W/2, rc.Y+rc.H/2+22, TextStyle{Size: 10, Bold: true, Color: emptyInk, Align: AlignCenter})
	case img == nil:
		badge = badgeFilled
		s.FillRoundRect(rc, Radius, fallbackFill)
	default:
		badge = badgeFilled
		if err := drawThumbnail(s, rc, cell.Title, img); err != nil {
			r.Log.WarnContext(ctx, "cell image draw failed, using fallback",
				slog.Int("cell", i), slog.String("video_id", cell.MediaID), slog.Any("error", err))
			s.FillRoundRect(rc, Radius, fallbackFill)
		}
	}
	s.DrawText(fmt.Sprint(i+1), rc.X+6, rc.Y+14, TextStyle{Size: 9, Bold: true, Color: badge})
}

// drawThumbnail draws the cover-fitted image, the shade and the title inside
// the rounded cell. Panics from the surface are reported as errors.
func drawThumbnail(s Surface, rc Rect, title string, img image.Image) (err error) {
	depth := 0
	defer func() {
		for ; depth > 0; depth-- {
			s.PopClip()
		}
		if p := recover(); p != nil {
			err = fmt.Errorf("draw panicked: %v", p)
		}
	}()

	b := img.Bounds()
	dst, err := CoverFit(rc, b.Dx(), b.Dy())
	if err != nil {
		return err
	}
	s.PushClip(rc, Radius)
	depth++
	if err := s.DrawImage(img, dst); err != nil {
		return err
	}
	s.FillGradient(rc, rc.X, rc.Y+rc.H*0.4, rc.X, rc.MaxY(), []ColorStop{
		{Offset: 0, Color: rgba(0, 0, 0, 0)},
		{Offset: 1, Color: shadeColor},
	})
	s.DrawText(TruncateTitle(title), rc.X+rc.W/2, rc.MaxY()-9, TextStyle{Size: 9, Bold: true, Color: white, Align: AlignCenter})
	return nil
}
