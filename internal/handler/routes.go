package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts the API, metrics and the static single-page app on r.
// scrapeMW runs in front of POST /api/scrape only.
func Register(r *gin.Engine, h *Handler, publicDir string, scrapeMW ...gin.HandlerFunc) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/scrape-status", h.ScrapeStatus)
		api.POST("/scrape", append(scrapeMW, h.Scrape)...)
	}

	r.NoRoute(SPA(publicDir))
}

// SPA serves files under dir and falls back to dir/index.html for every
// other GET so the frontend router can take over.
func SPA(dir string) gin.HandlerFunc {
	index := filepath.Join(dir, "index.html")
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		rel := path.Clean("/" + c.Request.URL.Path)
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			c.File(full)
			return
		}
		c.File(index)
	}
}
