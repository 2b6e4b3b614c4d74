// Command fetchvideos dumps the channel's uploads into a videos.json catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/youruser/mydozlesha/internal/config"
	"github.com/youruser/mydozlesha/internal/logger"
	"github.com/youruser/mydozlesha/internal/util"
	"github.com/youruser/mydozlesha/internal/videos"
	"github.com/youruser/mydozlesha/internal/youtube"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out := flag.String("out", cfg.Catalog.Path, "catalog file to write")
	after := flag.String("after", "2021-01-01", "keep uploads published on or after this date")
	key := flag.String("key", cfg.YouTube.APIKey, "YouTube Data API key (YOUTUBE_API_KEY)")
	flag.Parse()

	level, _ := cfg.Level()
	log := logger.New(logger.Opts{Env: cfg.App.Env, Level: level})

	since, err := time.Parse(time.DateOnly, *after)
	if err != nil {
		log.Error("invalid -after", slog.Any("error", err))
		os.Exit(2)
	}
	if *key == "" {
		log.Error("usage: fetchvideos -key YOUR_API_KEY")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := youtube.New(*key, cfg.YouTube.ChannelID, util.NewClient(cfg.Render.FetchTimeout), log)
	if _, err := dump(ctx, client, *out, since, log); err != nil {
		os.Exit(1)
	}
}

type uploadLister interface {
	ListUploads(ctx context.Context, since time.Time) ([]videos.Video, error)
}

// dump writes the uploads to path and returns how many it saved. A fetch
// that fails midway still saves what it collected; one that collected
// nothing leaves path untouched.
func dump(ctx context.Context, lister uploadLister, path string, since time.Time, log *slog.Logger) (int, error) {
	vs, err := lister.ListUploads(ctx, since)
	if err != nil {
		if len(vs) == 0 {
			log.Error("fetch uploads failed, nothing to save", slog.Any("error", err))
			return 0, err
		}
		log.Error("fetch uploads failed, saving partial catalog", slog.Any("error", err), slog.Int("videos", len(vs)))
	}

	if err := videos.SaveCatalog(path, videos.NewCatalog(vs, time.Now())); err != nil {
		log.Error("save catalog failed", slog.Any("error", err))
		return 0, err
	}
	log.Info("catalog saved", slog.String("path", path), slog.Int("videos", len(vs)))
	return len(vs), nil
}
