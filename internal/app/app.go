// Package app wires the server together with fx.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/youruser/mydozlesha/internal/api"
	"github.com/youruser/mydozlesha/internal/config"
	imagepkg "github.com/youruser/mydozlesha/internal/image"
	"github.com/youruser/mydozlesha/internal/logger"
	"github.com/youruser/mydozlesha/internal/session"
	"github.com/youruser/mydozlesha/internal/share"
	"github.com/youruser/mydozlesha/internal/util"
	"github.com/youruser/mydozlesha/internal/videos"
	"github.com/youruser/mydozlesha/internal/youtube"
)

var Module = fx.Options(
	fx.Provide(config.New),
	logger.FxOption,
	fx.Provide(
		newFonts,
		imagepkg.NewRenderer,
		newSource,
		newExporter,
		session.NewStore,
		session.NewGuard,
		newLimiter,
		newCatalog,
		newYouTube,
		newHandler,
		newEngine,
	),
	fx.Invoke(runSweeper, runServer),
)

// errNoCJKFont stops a production start with the built-in Go fonts, which
// have no Japanese glyphs.
var errNoCJKFont = errors.New("FONT_REGULAR must name a font with CJK glyphs outside development")

func newFonts(cfg *config.Config, log *slog.Logger) (*imagepkg.Fonts, error) {
	if cfg.Fonts.Regular == "" {
		if !cfg.IsDevelopment() {
			return nil, errNoCJKFont
		}
		log.Warn("FONT_REGULAR not set, Japanese text will render as missing glyphs")
	}
	return imagepkg.LoadFonts(cfg.Fonts.Regular, cfg.Fonts.Bold)
}

func newSource(cfg *config.Config, log *slog.Logger) imagepkg.Source {
	return imagepkg.NewHTTPSource(util.NewClient(cfg.Render.FetchTimeout), log)
}

// newExporter leaves the download-to-intent delay to the browser, which gets
// it in the share response.
func newExporter(log *slog.Logger) *share.Exporter {
	return share.NewExporter(0, log)
}

func newLimiter(cfg *config.Config) *session.Limiter {
	return session.NewLimiter(cfg.Render.RatePerMinute, time.Minute, cfg.Render.Burst)
}

// newCatalog loads the local catalog. A missing file leaves search to the
// YouTube API.
func newCatalog(cfg *config.Config, log *slog.Logger) ([]videos.Video, error) {
	c, err := videos.LoadCatalog(cfg.Catalog.Path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("video catalog not found, local search disabled", slog.String("path", cfg.Catalog.Path))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log.Info("video catalog loaded",
		slog.String("path", cfg.Catalog.Path),
		slog.Int("videos", c.Total),
		slog.Time("updated_at", c.UpdatedAt),
	)
	return c.Videos, nil
}

func newYouTube(cfg *config.Config, log *slog.Logger) *youtube.Client {
	return youtube.New(cfg.YouTube.APIKey, cfg.YouTube.ChannelID, util.NewClient(cfg.Render.FetchTimeout), log)
}

type handlerParams struct {
	fx.In

	Config   *config.Config
	Log      *slog.Logger
	Store    *session.Store
	Guard    *session.Guard
	Limiter  *session.Limiter
	Renderer *imagepkg.Renderer
	Source   imagepkg.Source
	Exporter *share.Exporter
	Catalog  []videos.Video
	YouTube  *youtube.Client
}

func newHandler(p handlerParams) *api.Handler {
	return &api.Handler{
		Store:     p.Store,
		Guard:     p.Guard,
		Limiter:   p.Limiter,
		Renderer:  p.Renderer,
		Source:    p.Source,
		Exporter:  p.Exporter,
		Catalog:   p.Catalog,
		Remote:    p.YouTube,
		OpenDelay: p.Config.Share.Delay,
		Log:       p.Log,
	}
}

func newEngine(cfg *config.Config, h *api.Handler, log *slog.Logger) (*gin.Engine, error) {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := api.NewEngine(h, log)
	// The render limiter keys on ClientIP, so forwarded headers count only
	// from known proxies.
	if err := engine.SetTrustedProxies(cfg.App.TrustedProxies); err != nil {
		return nil, fmt.Errorf("APP_TRUSTED_PROXIES: %w", err)
	}
	return engine, nil
}

// sweep drops idle sessions and rate-limit buckets.
func sweep(store *session.Store, limiter *session.Limiter, idle time.Duration, log *slog.Logger) {
	sessions := store.Sweep(idle)
	buckets := limiter.Sweep(idle)
	if sessions > 0 || buckets > 0 {
		log.Debug("swept idle sessions",
			slog.Int("sessions", sessions),
			slog.Int("buckets", buckets),
			slog.Int("remaining", store.Len()),
		)
	}
}

func runSweeper(lc fx.Lifecycle, cfg *config.Config, store *session.Store, limiter *session.Limiter, log *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				t := time.NewTicker(cfg.Session.SweepInterval)
				defer t.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-t.C:
						sweep(store, limiter, cfg.Session.IdleTTL, log)
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

func runServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, log *slog.Logger) {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			log.Info("starting server", slog.String("addr", ln.Addr().String()), slog.String("env", cfg.App.Env))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping server")
			return srv.Shutdown(ctx)
		},
	})
}
