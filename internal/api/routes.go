package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// NewEngine returns a gin engine with the API mounted.
func NewEngine(h *Handler, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	RegisterRoutes(r, h)
	return r
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	api.GET("/health", h.health)

	s := api.Group("", withSession)
	{
		s.GET("/session", h.getSession)
		s.PUT("/session/author", h.putAuthor)
		s.PUT("/session/cells/:index", h.putCell)
		s.DELETE("/session/cells/:index", h.deleteCell)
		s.GET("/videos", h.searchVideos)
		s.GET("/image.png", h.imagePNG)
		s.POST("/export/download", h.exportDownload)
		s.POST("/export/text", h.exportText)
		s.POST("/export/share", h.exportShare)
		s.GET("/qr", h.qr)
	}
}
