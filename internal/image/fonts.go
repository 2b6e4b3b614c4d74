package imagepkg

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Fonts holds the parsed regular and bold typefaces. Parsed fonts are shared
// between renders; faces are created per canvas since font.Face is not safe
// for concurrent use.
type Fonts struct {
	Regular *opentype.Font
	Bold    *opentype.Font
}

// LoadFonts reads TrueType/OpenType files. An empty path selects the matching
// Go font, which has no CJK glyphs; point FONT_REGULAR/FONT_BOLD at a font
// such as Noto Sans JP for Japanese titles.
func LoadFonts(regularPath, boldPath string) (*Fonts, error) {
	reg, err := loadFont(regularPath, goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("regular font: %w", err)
	}
	bold, err := loadFont(boldPath, gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("bold font: %w", err)
	}
	return &Fonts{Regular: reg, Bold: bold}, nil
}

// DefaultFonts returns the Go fonts.
func DefaultFonts() *Fonts {
	f, err := LoadFonts("", "")
	if err != nil {
		panic(err)
	}
	return f
}

func loadFont(path string, fallback []byte) (*opentype.Font, error) {
	data := fallback
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = b
	}
	// Collections (.ttc) use their first face; single fonts parse as a
	// collection of one.
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	return coll.Font(0)
}

type faceKey struct {
	bold bool
	px   float64
}

// faceCache creates faces on first use. One cache belongs to one canvas.
type faceCache struct {
	fonts *Fonts
	faces map[faceKey]font.Face
}

func newFaceCache(f *Fonts) *faceCache {
	return &faceCache{fonts: f, faces: make(map[faceKey]font.Face)}
}

func (c *faceCache) face(bold bool, px float64) (font.Face, error) {
	k := faceKey{bold, px}
	if f, ok := c.faces[k]; ok {
		return f, nil
	}
	src := c.fonts.Regular
	if bold {
		src = c.fonts.Bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    px,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	c.faces[k] = f
	return f, nil
}

func (c *faceCache) close() {
	for _, f := range c.faces {
		f.Close()
	}
}
