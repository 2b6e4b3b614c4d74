package videos

import "strings"

const (
	DefaultLimit = 6
	MaxLimit     = 50
)

// Search returns videos whose title contains every whitespace-separated
// word of query, ignoring case, in catalog order. An empty query matches
// everything. limit is clamped to [1, MaxLimit]; zero means DefaultLimit.
func Search(vs []Video, query string, limit int) []Video {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	kw := strings.Fields(strings.ToLower(query))
	out := []Video{}
	for _, v := range vs {
		if len(out) == limit {
			break
		}
		title := strings.ToLower(v.Title)
		ok := true
		for _, k := range kw {
			if !strings.Contains(title, k) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, v)
		}
	}
	return out
}
