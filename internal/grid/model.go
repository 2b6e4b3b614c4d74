package grid

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	Size = 6
	Cols = 3
	Rows = 2

	MaxAuthorLen = 40
)

var (
	ErrIndexOutOfRange  = errors.New("cell index out of range")
	ErrInvalidSelection = errors.New("selection has no media id")
	ErrTooManyCells     = errors.New("too many cells")
	ErrAuthorTooLong    = errors.New("author name too long")
)

// Selection is a chosen video. It is replaced wholesale, never edited.
type Selection struct {
	MediaID      string `json:"video_id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail,omitempty"`
}

type Cell struct {
	Selection
	Filled bool
}

// Grid is a fixed six-slot value. Methods that change it return a new Grid
// and leave the receiver untouched, so a copy taken before a render is a
// stable snapshot.
type Grid struct {
	cells [Size]Cell
}

func New() Grid {
	return Grid{}
}

// FromSelections builds a grid from up to Size entries; nil entries stay empty.
func FromSelections(sels []*Selection) (Grid, error) {
	var g Grid
	if len(sels) > Size {
		return g, fmt.Errorf("%w: got %d, max %d", ErrTooManyCells, len(sels), Size)
	}
	for i, s := range sels {
		if s == nil {
			continue
		}
		var err error
		if g, err = g.With(i, *s); err != nil {
			return Grid{}, err
		}
	}
	return g, nil
}

func (g Grid) With(i int, s Selection) (Grid, error) {
	if err := checkIndex(i); err != nil {
		return g, err
	}
	if strings.TrimSpace(s.MediaID) == "" {
		return g, ErrInvalidSelection
	}
	g.cells[i] = Cell{Selection: s, Filled: true}
	return g, nil
}

func (g Grid) Without(i int) (Grid, error) {
	if err := checkIndex(i); err != nil {
		return g, err
	}
	g.cells[i] = Cell{}
	return g, nil
}

// Cell returns the cell at i. Out-of-range indexes panic.
func (g Grid) Cell(i int) Cell {
	return g.cells[i]
}

func (g Grid) Cells() [Size]Cell {
	return g.cells
}

func (g Grid) FilledCount() int {
	n := 0
	for _, c := range g.cells {
		if c.Filled {
			n++
		}
	}
	return n
}

func (g Grid) IsEmpty() bool {
	return g.FilledCount() == 0
}

// Selections returns the grid as a list with nil for empty cells.
func (g Grid) Selections() []*Selection {
	out := make([]*Selection, Size)
	for i, c := range g.cells {
		if c.Filled {
			s := c.Selection
			out[i] = &s
		}
	}
	return out
}

func checkIndex(i int) error {
	if i < 0 || i >= Size {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return nil
}

// NormalizeAuthor trims the display name and enforces MaxAuthorLen characters.
func NormalizeAuthor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxAuthorLen {
		return "", fmt.Errorf("%w: max %d characters", ErrAuthorTooLong, MaxAuthorLen)
	}
	return s, nil
}
