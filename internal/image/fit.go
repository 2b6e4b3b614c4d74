package imagepkg

import (
	"errors"
	"math"
)

const (
	maxTitleLen  = 30
	keptTitleLen = 28
	ellipsis     = "…"
)

var errEmptyImage = errors.New("image has no pixels")

// CoverFit scales a srcW×srcH image so it fills cell completely and centers
// it; the returned rect may extend past cell on one axis.
func CoverFit(cell Rect, srcW, srcH int) (Rect, error) {
	if srcW <= 0 || srcH <= 0 {
		return Rect{}, errEmptyImage
	}
	s := math.Max(cell.W/float64(srcW), cell.H/float64(srcH))
	w, h := float64(srcW)*s, float64(srcH)*s
	return Rect{
		X: cell.X + (cell.W-w)/2,
		Y: cell.Y + (cell.H-h)/2,
		W: w,
		H: h,
	}, nil
}

// TruncateTitle shortens titles longer than 30 characters to 28 plus an
// ellipsis. Characters are counted as runes.
func TruncateTitle(s string) string {
	r := []rune(s)
	if len(r) <= maxTitleLen {
		return s
	}
	return string(r[:keptTitleLen]) + ellipsis
}
