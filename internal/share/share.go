// Package share implements the export paths for a rendered share image:
// file download, clipboard text and social sharing with a web-intent
// fallback.
package share

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/youruser/mydozlesha/internal/brand"
	"github.com/youruser/mydozlesha/internal/grid"
	imagepkg "github.com/youruser/mydozlesha/internal/image"
)

// Notices shown to the user.
const (
	NoticeSaved        = "画像を保存しました！🎉"
	NoticeSaveFailed   = "画像の生成に失敗しました"
	NoticeCopied       = "コピーしました！"
	NoticeCopyFailed   = "コピーに失敗しました"
	NoticeAttachManual = "画像をDLしました！Twitterに添付してね📎"
	NoticeShareFailed  = "シェアに失敗しました"
)

// DefaultDelay separates the fallback download from opening the intent URL.
const DefaultDelay = 800 * time.Millisecond

var ErrShareUnsupported = errors.New("file sharing unsupported")

// Payload is what a native share sheet receives.
type Payload struct {
	Text     string
	Filename string
	PNG      []byte
}

// Sink is the platform side of an export.
type Sink interface {
	SaveFile(ctx context.Context, filename, dataURI string) error
	WriteClipboard(ctx context.Context, text string) error
	CanShareFiles() bool
	ShareFiles(ctx context.Context, p Payload) error
	OpenURL(ctx context.Context, rawURL string) error
	Notify(msg string)
}

type Exporter struct {
	Delay time.Duration
	Log   *slog.Logger
}

func NewExporter(delay time.Duration, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{Delay: delay, Log: log}
}

// DataURI encodes png as a data: URI.
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// IntentURL returns the tweet intent URL pre-filled with text, escaped the
// way a browser's encodeURIComponent does it.
func IntentURL(text string) string {
	return brand.IntentTweet + "?text=" + escapeComponent(text)
}

// componentUnescapes undoes url.QueryEscape where encodeURIComponent leaves
// characters as they are.
var componentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func escapeComponent(s string) string {
	return componentUnescapes.Replace(url.QueryEscape(s))
}

// Download hands the PNG to the sink as a file save.
func (e *Exporter) Download(ctx context.Context, sink Sink, res *imagepkg.Result) error {
	if err := save(ctx, sink, res); err != nil {
		e.Log.ErrorContext(ctx, "download failed", slog.Any("error", err))
		sink.Notify(NoticeSaveFailed)
		return err
	}
	sink.Notify(NoticeSaved)
	return nil
}

// CopyText puts the slot list on the clipboard.
func (e *Exporter) CopyText(ctx context.Context, sink Sink, g grid.Grid) error {
	if err := sink.WriteClipboard(ctx, grid.ExportText(g)); err != nil {
		e.Log.WarnContext(ctx, "clipboard write failed", slog.Any("error", err))
		sink.Notify(NoticeCopyFailed)
		return fmt.Errorf("clipboard: %w", err)
	}
	sink.Notify(NoticeCopied)
	return nil
}

// Share tries the native share sheet first. When files cannot be shared or
// the share is rejected it downloads the image, waits Delay and opens the
// tweet intent so the user can attach the file by hand.
func (e *Exporter) Share(ctx context.Context, sink Sink, res *imagepkg.Result) error {
	if res == nil {
		sink.Notify(NoticeShareFailed)
		return errNoResult
	}
	if sink.CanShareFiles() {
		err := sink.ShareFiles(ctx, Payload{Text: brand.ShareText, Filename: brand.Filename, PNG: res.PNG})
		if err == nil {
			return nil
		}
		e.Log.InfoContext(ctx, "native share rejected, using web intent", slog.Any("error", err))
	}

	if err := save(ctx, sink, res); err != nil {
		e.Log.ErrorContext(ctx, "share fallback download failed", slog.Any("error", err))
		sink.Notify(NoticeShareFailed)
		return err
	}
	if e.Delay > 0 {
		t := time.NewTimer(e.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := sink.OpenURL(ctx, IntentURL(brand.ShareText)); err != nil {
		e.Log.ErrorContext(ctx, "open share intent failed", slog.Any("error", err))
		sink.Notify(NoticeShareFailed)
		return fmt.Errorf("open intent: %w", err)
	}
	sink.Notify(NoticeAttachManual)
	return nil
}

var errNoResult = errors.New("no rendered image")

func save(ctx context.Context, sink Sink, res *imagepkg.Result) error {
	if res == nil || len(res.PNG) == 0 {
		return errNoResult
	}
	if err := sink.SaveFile(ctx, brand.Filename, DataURI(res.PNG)); err != nil {
		return fmt.Errorf("save %s: %w", brand.Filename, err)
	}
	return nil
}
