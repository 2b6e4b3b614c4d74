package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/mydozlesha/internal/brand"
	"github.com/youruser/mydozlesha/internal/grid"
	imagepkg "github.com/youruser/mydozlesha/internal/image"
	"github.com/youruser/mydozlesha/internal/session"
	"github.com/youruser/mydozlesha/internal/share"
	"github.com/youruser/mydozlesha/internal/videos"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeRemote struct {
	enabled bool
	err     error
	queries []string
}

func (f *fakeRemote) Enabled() bool { return f.enabled }

func (f *fakeRemote) Search(_ context.Context, q string, limit int) ([]videos.Video, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return []videos.Video{{VideoID: "remote1", Title: "from api " + q}}, nil
}

type client struct {
	t      *testing.T
	h      *Handler
	engine *gin.Engine
	cookie *http.Cookie
}

func newClient(t *testing.T) *client {
	t.Helper()
	h := &Handler{
		Store:    session.NewStore(),
		Guard:    session.NewGuard(),
		Limiter:  session.NewLimiter(0, time.Minute, 0),
		Renderer: imagepkg.NewRenderer(imagepkg.DefaultFonts(), quietLog),
		Source: imagepkg.SourceFunc(func(context.Context, grid.Selection) (image.Image, error) {
			return nil, imagepkg.ErrUnavailable
		}),
		Exporter: share.NewExporter(0, quietLog),
		Catalog: []videos.Video{
			{VideoID: "c1", Title: "【マイクラ】建築"},
			{VideoID: "c2", Title: "雑談"},
		},
		OpenDelay: 800 * time.Millisecond,
		Log:       quietLog,
	}
	return &client{t: t, h: h, engine: NewEngine(h, quietLog)}
}

func (c *client) do(method, target string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == CookieName {
			c.cookie = ck
		}
	}
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type exportBody struct {
	Download *share.FileAction  `json:"download"`
	Share    *share.ShareAction `json:"share"`
	Clip     *string            `json:"clipboard"`
	OpenURL  string             `json:"open_url"`
	Delay    int64              `json:"open_url_delay_ms"`
	Notices  []string           `json:"notices"`
	Summary  []string           `json:"summary"`
	Fallback *exportBody        `json:"fallback"`
	Error    string             `json:"error"`
}

func (c *client) fill(n int) {
	c.t.Helper()
	for i := range n {
		w := c.do(http.MethodPut, "/api/session/cells/"+strconv.Itoa(i), grid.Selection{MediaID: "vid" + string(rune('a'+i)), Title: "video"})
		require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	c := newClient(t)
	w := c.do(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Nil(t, c.cookie, "health needs no session")
}

func TestSessionCookie(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodGet, "/api/session", nil)
	require.NotNil(t, c.cookie)
	first := c.cookie.Value
	assert.True(t, c.cookie.HttpOnly)

	w := c.do(http.MethodGet, "/api/session", nil)
	assert.Empty(t, w.Result().Cookies(), "a valid cookie is kept")
	assert.Equal(t, first, c.cookie.Value)

	c.cookie = &http.Cookie{Name: CookieName, Value: "not-a-uuid"}
	c.do(http.MethodGet, "/api/session", nil)
	assert.NotEqual(t, "not-a-uuid", c.cookie.Value)
}

func TestCellsAndAuthor(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodPut, "/api/session/cells/4", grid.Selection{MediaID: "abc", Title: "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[sessionView](t, w)
	assert.Equal(t, 1, view.Filled)
	require.Len(t, view.Cells, grid.Size)
	assert.True(t, view.Cells[4].Filled)
	assert.Equal(t, "https://i.ytimg.com/vi/abc/mqdefault.jpg", view.Cells[4].ThumbnailURL)
	assert.Nil(t, view.Cells[0].Selection)
	assert.Equal(t, "5\ufe0f\u20e3 hello", view.Summary[4])

	w = c.do(http.MethodPut, "/api/session/author", gin.H{"author": " ぼんじゅうる "})
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[sessionView](t, w)
	assert.Equal(t, "ぼんじゅうる", view.Author)
	assert.Equal(t, "ぼんじゅうる を構成する6つのドズル社動画", view.Title)

	w = c.do(http.MethodDelete, "/api/session/cells/4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[sessionView](t, w).Filled)
}

func TestCellErrors(t *testing.T) {
	c := newClient(t)
	tests := []struct {
		name   string
		method string
		target string
		body   any
		want   int
	}{
		{"index out of range", http.MethodPut, "/api/session/cells/6", grid.Selection{MediaID: "x"}, http.StatusNotFound},
		{"negative index", http.MethodDelete, "/api/session/cells/-1", nil, http.StatusNotFound},
		{"index not a number", http.MethodPut, "/api/session/cells/x", grid.Selection{MediaID: "x"}, http.StatusBadRequest},
		{"missing video id", http.MethodPut, "/api/session/cells/0", grid.Selection{Title: "x"}, http.StatusBadRequest},
		{"author too long", http.MethodPut, "/api/session/author", gin.H{"author": strings.Repeat("あ", 41)}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := c.do(tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, decode[gin.H](t, w)["error"])
		})
	}
}

func TestImagePNG(t *testing.T) {
	c := newClient(t)
	for _, filled := range []int{0, 3} {
		c.fill(filled)
		w := c.do(http.MethodGet, "/api/image.png", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

		cfg, err := png.DecodeConfig(w.Body)
		require.NoError(t, err)
		assert.Equal(t, 1432, cfg.Width)
		assert.Equal(t, 924, cfg.Height)
	}
}

func TestExportsRejectEmptyGrid(t *testing.T) {
	c := newClient(t)
	for _, path := range []string{"/api/export/download", "/api/export/text", "/api/export/share"} {
		w := c.do(http.MethodPost, path, nil)
		assert.Equal(t, http.StatusConflict, w.Code, path)
	}
}

func TestExportDownload(t *testing.T) {
	c := newClient(t)
	c.fill(2)

	w := c.do(http.MethodPost, "/api/export/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[exportBody](t, w)
	require.NotNil(t, body.Download)
	assert.Equal(t, brand.Filename, body.Download.Filename)
	assert.True(t, strings.HasPrefix(body.Download.DataURI, "data:image/png;base64,"))
	assert.Equal(t, []string{share.NoticeSaved}, body.Notices)
	assert.Len(t, body.Summary, grid.Size)
}

func TestExportText(t *testing.T) {
	c := newClient(t)
	c.fill(1)

	w := c.do(http.MethodPost, "/api/export/text", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[exportBody](t, w)
	require.NotNil(t, body.Clip)
	assert.Equal(t, grid.ExportText(c.h.Store.Get(c.cookie.Value).Grid), *body.Clip)
	assert.Equal(t, []string{share.NoticeCopied}, body.Notices)
}

func TestExportShare(t *testing.T) {
	c := newClient(t)
	c.fill(6)

	w := c.do(http.MethodPost, "/api/export/share", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[exportBody](t, w)
	require.NotNil(t, body.Download)
	assert.Nil(t, body.Share)
	assert.Equal(t, share.IntentURL(brand.ShareText), body.OpenURL)
	assert.Equal(t, int64(800), body.Delay)
	assert.Equal(t, []string{share.NoticeAttachManual}, body.Notices)
	assert.Nil(t, body.Fallback, "the web-intent path needs no fallback")

	w = c.do(http.MethodPost, "/api/export/share", gin.H{"native_share": true})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[exportBody](t, w)
	require.NotNil(t, body.Share)
	assert.Equal(t, brand.ShareText, body.Share.Text)
	assert.Nil(t, body.Download)
	assert.Empty(t, body.OpenURL)
	assert.Zero(t, body.Delay)

	// A rejected native share falls back without another render.
	fb := body.Fallback
	require.NotNil(t, fb)
	require.NotNil(t, fb.Download)
	assert.Equal(t, brand.Filename, fb.Download.Filename)
	assert.Equal(t, body.Share.DataURI, fb.Download.DataURI)
	assert.Equal(t, share.IntentURL(brand.ShareText), fb.OpenURL)
	assert.Equal(t, int64(800), fb.Delay)
	assert.Equal(t, []string{share.NoticeAttachManual}, fb.Notices)
	assert.Nil(t, fb.Share)
}

func TestRenderWhileBusy(t *testing.T) {
	c := newClient(t)
	c.fill(1)

	release, err := c.h.Guard.Acquire(c.cookie.Value)
	require.NoError(t, err)
	w := c.do(http.MethodGet, "/api/image.png", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, session.ErrBusy.Error(), decode[gin.H](t, w)["error"])

	release()
	w = c.do(http.MethodGet, "/api/image.png", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRenderRateLimited(t *testing.T) {
	c := newClient(t)
	c.h.Limiter = session.NewLimiter(1, time.Hour, 1)

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/image.png", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, c.do(http.MethodGet, "/api/image.png", nil).Code)
}

func TestRenderRateLimitedWithoutCookie(t *testing.T) {
	c := newClient(t)
	c.h.Limiter = session.NewLimiter(1, time.Hour, 1)

	get := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/image.png", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		c.engine.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get("203.0.113.7:40000"))
	allowed := 0
	for i := range 50 {
		if get("203.0.113.7:" + strconv.Itoa(40001+i)) == http.StatusOK {
			allowed++
		}
	}
	assert.Zero(t, allowed, "a new session per request must not reset the bucket")
	assert.Equal(t, http.StatusOK, get("198.51.100.2:40000"), "other clients keep their own bucket")
}

type searchBody struct {
	Source string         `json:"source"`
	Count  int            `json:"count"`
	Videos []videos.Video `json:"videos"`
}

func TestSearchVideos(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodGet, "/api/videos?q="+url.QueryEscape("マイクラ"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[searchBody](t, w)
	assert.Equal(t, "catalog", body.Source)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "c1", body.Videos[0].VideoID)

	remote := &fakeRemote{enabled: true}
	c.h.Remote = remote
	body = decode[searchBody](t, c.do(http.MethodGet, "/api/videos?q=pvp", nil))
	assert.Equal(t, "youtube", body.Source)
	assert.Equal(t, "remote1", body.Videos[0].VideoID)

	body = decode[searchBody](t, c.do(http.MethodGet, "/api/videos?limit=1", nil))
	assert.Equal(t, "catalog", body.Source, "an empty query browses the catalog")
	assert.Equal(t, 1, body.Count)

	remote.err = errors.New("quota")
	body = decode[searchBody](t, c.do(http.MethodGet, "/api/videos?q="+url.QueryEscape("雑談"), nil))
	assert.Equal(t, "catalog", body.Source)
	assert.Equal(t, "c2", body.Videos[0].VideoID)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/api/videos?limit=x", nil).Code)
}

func TestQR(t *testing.T) {
	c := newClient(t)

	w := c.do(http.MethodGet, "/api/qr?size=256", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cfg, err := png.DecodeConfig(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Width)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/api/qr?size=5000", nil).Code)
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/api/qr?size=big", nil).Code)
}
