// Package api serves the share-image builder over HTTP. Each visitor gets a
// cookie-keyed session holding their grid; exports answer with the actions a
// browser has to carry out.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/youruser/mydozlesha/internal/brand"
	"github.com/youruser/mydozlesha/internal/grid"
	imagepkg "github.com/youruser/mydozlesha/internal/image"
	"github.com/youruser/mydozlesha/internal/session"
	"github.com/youruser/mydozlesha/internal/share"
	"github.com/youruser/mydozlesha/internal/videos"
)

var errEmptyGrid = errors.New("no videos selected")

// VideoSearcher looks videos up remotely. Enabled reports whether it is
// configured.
type VideoSearcher interface {
	Enabled() bool
	Search(ctx context.Context, q string, limit int) ([]videos.Video, error)
}

type Handler struct {
	Store    *session.Store
	Guard    *session.Guard
	Limiter  *session.Limiter
	Renderer *imagepkg.Renderer
	Source   imagepkg.Source
	Exporter *share.Exporter
	Catalog  []videos.Video
	Remote   VideoSearcher
	// OpenDelay is how long the client waits between the fallback download
	// and opening the share intent.
	OpenDelay time.Duration
	Log       *slog.Logger
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type cellView struct {
	Index  int  `json:"index"`
	Filled bool `json:"filled"`
	*grid.Selection
}

type sessionView struct {
	Author  string     `json:"author"`
	Title   string     `json:"title"`
	Filled  int        `json:"filled"`
	Cells   []cellView `json:"cells"`
	Summary []string   `json:"summary"`
}

func newSessionView(st session.State) sessionView {
	v := sessionView{
		Author:  st.Author,
		Title:   imagepkg.HeaderTitle(st.Author),
		Filled:  st.Grid.FilledCount(),
		Cells:   make([]cellView, 0, grid.Size),
		Summary: grid.SummaryLines(st.Grid),
	}
	for i, sel := range st.Grid.Selections() {
		v.Cells = append(v.Cells, cellView{Index: i, Filled: sel != nil, Selection: sel})
	}
	return v
}

func (h *Handler) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, newSessionView(h.Store.Get(sessionID(c))))
}

func (h *Handler) putAuthor(c *gin.Context) {
	var req struct {
		Author string `json:"author"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.Store.SetAuthor(sessionID(c), req.Author)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionView(st))
}

func cellIndex(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cell index must be a number"})
		return 0, false
	}
	return i, true
}

func (h *Handler) putCell(c *gin.Context) {
	i, ok := cellIndex(c)
	if !ok {
		return
	}
	var sel grid.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if sel.ThumbnailURL == "" && sel.MediaID != "" {
		sel.ThumbnailURL = videos.DefaultThumbnail(sel.MediaID)
	}
	st, err := h.Store.SetCell(sessionID(c), i, sel)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionView(st))
}

func (h *Handler) deleteCell(c *gin.Context) {
	i, ok := cellIndex(c)
	if !ok {
		return
	}
	st, err := h.Store.ClearCell(sessionID(c), i)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionView(st))
}

// searchVideos queries the YouTube API when it is configured and falls back
// to the local catalog otherwise or when the API fails.
func (h *Handler) searchVideos(c *gin.Context) {
	q := c.Query("q")
	limit := videos.DefaultLimit
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
			return
		}
		limit = v
	}

	source := "catalog"
	var out []videos.Video
	if h.Remote != nil && h.Remote.Enabled() && q != "" {
		vs, err := h.Remote.Search(c.Request.Context(), q, limit)
		if err == nil {
			source, out = "youtube", vs
		} else {
			h.Log.WarnContext(c.Request.Context(), "youtube search failed, using catalog",
				slog.String("query", q), slog.Any("error", err))
		}
	}
	if source == "catalog" {
		out = videos.Search(h.Catalog, q, limit)
	}
	c.JSON(http.StatusOK, gin.H{"source": source, "count": len(out), "videos": out})
}

// render produces a fresh image of the caller's grid. It writes the error
// response itself and returns nil on failure.
func (h *Handler) render(c *gin.Context, st session.State) *imagepkg.Result {
	id := sessionID(c)
	// Keyed by address: a fresh cookie on every request gets no new bucket.
	if !h.Limiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many renders, slow down"})
		return nil
	}
	release, err := h.Guard.Acquire(id)
	if err != nil {
		h.fail(c, err)
		return nil
	}
	defer release()

	res, err := h.Renderer.Compose(c.Request.Context(), st.Grid, st.Author, h.Source)
	if err != nil {
		h.fail(c, err)
		return nil
	}
	return res
}

func (h *Handler) imagePNG(c *gin.Context) {
	res := h.render(c, h.Store.Get(sessionID(c)))
	if res == nil {
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", res.PNG)
}

// nonEmpty returns the caller's state or answers 409 when nothing is
// selected; the export buttons are disabled in that case.
func (h *Handler) nonEmpty(c *gin.Context) (session.State, bool) {
	st := h.Store.Get(sessionID(c))
	if st.Grid.IsEmpty() {
		h.fail(c, errEmptyGrid)
		return st, false
	}
	return st, true
}

type exportResponse struct {
	*share.Actions
	Summary     []string `json:"summary,omitempty"`
	OpenDelayMS int64    `json:"open_url_delay_ms,omitempty"`
	// Fallback is what to do when the native share sheet rejects the file.
	Fallback *exportResponse `json:"fallback,omitempty"`
}

func (h *Handler) exportDownload(c *gin.Context) {
	st, ok := h.nonEmpty(c)
	if !ok {
		return
	}
	res := h.render(c, st)
	if res == nil {
		return
	}
	actions := share.NewActions(false)
	if err := h.Exporter.Download(c.Request.Context(), actions, res); err != nil {
		c.JSON(http.StatusInternalServerError, exportResponse{Actions: actions})
		return
	}
	c.JSON(http.StatusOK, exportResponse{Actions: actions, Summary: res.Summary})
}

func (h *Handler) exportText(c *gin.Context) {
	st, ok := h.nonEmpty(c)
	if !ok {
		return
	}
	actions := share.NewActions(false)
	if err := h.Exporter.CopyText(c.Request.Context(), actions, st.Grid); err != nil {
		c.JSON(http.StatusInternalServerError, exportResponse{Actions: actions})
		return
	}
	c.JSON(http.StatusOK, exportResponse{Actions: actions})
}

func (h *Handler) exportShare(c *gin.Context) {
	var req struct {
		NativeShare bool `json:"native_share"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	st, ok := h.nonEmpty(c)
	if !ok {
		return
	}
	res := h.render(c, st)
	if res == nil {
		return
	}
	actions := share.NewActions(req.NativeShare)
	if err := h.Exporter.Share(c.Request.Context(), actions, res); err != nil {
		c.JSON(http.StatusInternalServerError, exportResponse{Actions: actions})
		return
	}
	resp := exportResponse{Actions: actions, Summary: res.Summary}
	if actions.Open != "" {
		resp.OpenDelayMS = h.OpenDelay.Milliseconds()
	}
	if actions.Share != nil {
		// The browser may still fail navigator.share; hand it the web-intent
		// path for the same image so it does not have to render again.
		fallback := share.NewActions(false)
		if err := h.Exporter.Share(c.Request.Context(), fallback, res); err != nil {
			h.Log.WarnContext(c.Request.Context(), "share fallback unavailable", slog.Any("error", err))
		} else {
			resp.Fallback = &exportResponse{Actions: fallback, OpenDelayMS: h.OpenDelay.Milliseconds()}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// qr returns a QR code of the share intent so a phone can pick it up.
func (h *Handler) qr(c *gin.Context) {
	size := imagepkg.DefaultQRSize
	if s := c.Query("size"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size must be a number"})
			return
		}
		size = v
	}
	b, err := imagepkg.ShareQR(share.IntentURL(brand.ShareText), size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, grid.ErrIndexOutOfRange):
		status = http.StatusNotFound
	case errors.Is(err, grid.ErrInvalidSelection),
		errors.Is(err, grid.ErrAuthorTooLong),
		errors.Is(err, imagepkg.ErrQRSize):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrBusy),
		errors.Is(err, errEmptyGrid):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.Log.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()), slog.Any("error", err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
