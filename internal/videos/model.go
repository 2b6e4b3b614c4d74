// Package videos holds the local catalog of channel uploads and its search.
package videos

import (
	"fmt"
	"time"

	"github.com/youruser/mydozlesha/internal/grid"
)

type Video struct {
	VideoID     string    `json:"videoId"`
	Title       string    `json:"title"`
	Thumbnail   string    `json:"thumbnail"`
	PublishedAt time.Time `json:"publishedAt,omitzero"`
}

// Catalog is the videos.json document.
type Catalog struct {
	UpdatedAt time.Time `json:"updatedAt"`
	Total     int       `json:"total"`
	Videos    []Video   `json:"videos"`
}

func NewCatalog(vs []Video, now time.Time) Catalog {
	if vs == nil {
		vs = []Video{}
	}
	return Catalog{UpdatedAt: now.UTC(), Total: len(vs), Videos: vs}
}

// DefaultThumbnail is the medium thumbnail every upload has.
func DefaultThumbnail(videoID string) string {
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/mqdefault.jpg", videoID)
}

// ToSelection turns a search hit into a grid selection.
func (v Video) ToSelection() grid.Selection {
	thumb := v.Thumbnail
	if thumb == "" {
		thumb = DefaultThumbnail(v.VideoID)
	}
	return grid.Selection{MediaID: v.VideoID, Title: v.Title, ThumbnailURL: thumb}
}
