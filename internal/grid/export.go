package grid

import (
	"strconv"
	"strings"

	"github.com/youruser/mydozlesha/internal/brand"
)

// keycap turns a digit into its keycap emoji (digit, VS16, U+20E3).
func keycap(n int) string {
	return strconv.Itoa(n) + "\ufe0f\u20e3"
}

// SummaryLines returns one line per slot, in index order.
func SummaryLines(g Grid) []string {
	lines := make([]string, 0, Size)
	for i, c := range g.cells {
		title := brand.Placeholder
		if c.Filled {
			title = c.Title
		}
		lines = append(lines, keycap(i+1)+" "+title)
	}
	return lines
}

// ExportText renders the clipboard text for g.
func ExportText(g Grid) string {
	var b strings.Builder
	b.WriteString(brand.Heading)
	b.WriteByte('\n')
	b.WriteString(strings.Join(SummaryLines(g), "\n"))
	b.WriteString("\n\n")
	b.WriteString(brand.Hashtags)
	b.WriteByte('\n')
	b.WriteString(brand.ChannelURL)
	return b.String()
}
