package videos

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/youruser/mydozlesha/internal/util"
)

// LoadCatalog reads a videos.json file. Entries without a video id are
// dropped.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	out := c.Videos[:0]
	for _, v := range c.Videos {
		v.VideoID = strings.TrimSpace(v.VideoID)
		if v.VideoID == "" {
			continue
		}
		out = append(out, v)
	}
	c.Videos = out
	c.Total = len(out)
	return c, nil
}

// SaveCatalog writes c as indented JSON, replacing path atomically.
func SaveCatalog(path string, c Catalog) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return util.WriteFileAtomic(path, append(data, '\n'))
}
