package imagepkg

import "github.com/youruser/mydozlesha/internal/grid"

// Logical geometry of the share image. Everything is drawn at Scale× density.
const (
	CellW   = 220
	CellH   = 140
	Gap     = 8
	Pad     = 20
	HeaderH = 90
	FooterH = 44
	Radius  = 7
	Scale   = 2

	Width  = grid.Cols*CellW + (grid.Cols-1)*Gap + Pad*2
	Height = HeaderH + grid.Rows*CellH + (grid.Rows-1)*Gap + Pad*2 + FooterH
)

// Rect is an axis-aligned rectangle in logical pixels.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

// CellRect returns the bounds of cell i.
func CellRect(i int) Rect {
	if i < 0 || i >= grid.Size {
		panic("imagepkg: cell index out of range")
	}
	col, row := i%grid.Cols, i/grid.Cols
	return Rect{
		X: float64(Pad + col*(CellW+Gap)),
		Y: float64(HeaderH + Pad + row*(CellH+Gap)),
		W: CellW,
		H: CellH,
	}
}
