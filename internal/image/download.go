package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/youruser/mydozlesha/internal/grid"
	"github.com/youruser/mydozlesha/internal/retry"
	"github.com/youruser/mydozlesha/internal/util"
)

// ErrUnavailable means no candidate produced a usable image.
var ErrUnavailable = errors.New("image unavailable")

// Source supplies the decoded image for a selection.
type Source interface {
	Load(ctx context.Context, sel grid.Selection) (image.Image, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, sel grid.Selection) (image.Image, error)

func (f SourceFunc) Load(ctx context.Context, sel grid.Selection) (image.Image, error) {
	return f(ctx, sel)
}

// Resolve loads every filled cell of g concurrently and waits for all of
// them. Failures leave the handle nil.
func Resolve(ctx context.Context, src Source, g grid.Grid, log *slog.Logger) Handles {
	var h Handles
	if src == nil {
		return h
	}
	if log == nil {
		log = slog.Default()
	}
	var eg errgroup.Group
	for i, c := range g.Cells() {
		if !c.Filled {
			continue
		}
		eg.Go(func() error {
			img, err := src.Load(ctx, c.Selection)
			if err != nil {
				log.WarnContext(ctx, "cell image unavailable",
					slog.Int("cell", i), slog.String("video_id", c.MediaID), slog.Any("error", err))
				return nil
			}
			h[i] = img
			return nil
		})
	}
	eg.Wait()
	return h
}

// CandidateURLs lists the thumbnail URLs to try for sel, best first.
func CandidateURLs(sel grid.Selection) []string {
	urls := []string{
		sel.ThumbnailURL,
		"https://i.ytimg.com/vi/" + sel.MediaID + "/mqdefault.jpg",
		"https://i.ytimg.com/vi/" + sel.MediaID + "/hqdefault.jpg",
		"https://img.youtube.com/vi/" + sel.MediaID + "/0.jpg",
	}
	seen := make(map[string]bool, len(urls))
	out := urls[:0]
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// HTTPSource downloads thumbnails, walking the candidate list until one
// decodes.
type HTTPSource struct {
	Client *http.Client
	Retry  retry.Config
	Log    *slog.Logger
	// Candidates overrides CandidateURLs.
	Candidates func(grid.Selection) []string
}

func NewHTTPSource(client *http.Client, log *slog.Logger) *HTTPSource {
	return &HTTPSource{Client: client, Retry: retry.DefaultConfig(), Log: log}
}

func (s *HTTPSource) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

func (s *HTTPSource) Load(ctx context.Context, sel grid.Selection) (image.Image, error) {
	candidates := CandidateURLs
	if s.Candidates != nil {
		candidates = s.Candidates
	}
	var errs []error
	for _, u := range candidates(sel) {
		img, err := s.DownloadImage(ctx, u)
		if err == nil {
			return img, nil
		}
		s.logger().DebugContext(ctx, "thumbnail candidate failed", slog.String("url", u), slog.Any("error", err))
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, sel.MediaID, errors.Join(errs...))
}

// DownloadImage fetches url, retrying transient failures, and returns a
// private copy of the decoded image.
func (s *HTTPSource) DownloadImage(ctx context.Context, url string) (image.Image, error) {
	var body []byte
	err := retry.Do(ctx, s.logger(), "thumbnail "+url, func() error {
		b, err := util.GetBytes(ctx, s.Client, url)
		if err != nil {
			var se *util.StatusError
			if errors.As(err, &se) && !se.Transient() {
				return retry.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}, s.Retry)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return snapshot(img)
}

// snapshot copies img into a fresh NRGBA buffer so later draws never touch
// the decoder's memory. An empty copy counts as unavailable.
func snapshot(img image.Image) (image.Image, error) {
	cp := imaging.Clone(img)
	if cp.Bounds().Empty() {
		return nil, ErrUnavailable
	}
	return cp, nil
}
