package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

const placeholderPage = `<!doctype html>
<html><head><meta charset="utf-8"><title>NotSoAI Dashboard</title></head>
<body><div id="root"></div></body></html>
`

// Page serves the single-page frontend shell. Routing decisions have already
// been made by the edge guard.
func (h *Handler) Page(c *gin.Context) {
	if h.Cfg.WebDir != "" {
		index := filepath.Join(h.Cfg.WebDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			c.File(index)
			return
		}
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(placeholderPage))
}

// Asset serves files under WEB_DIR/assets.
func (h *Handler) Asset(c *gin.Context) {
	if h.Cfg.WebDir == "" {
		c.Status(http.StatusNotFound)
		return
	}
	rel := strings.TrimPrefix(c.Param("filepath"), "/")
	root := filepath.Join(h.Cfg.WebDir, "assets")
	p := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(p, root+string(filepath.Separator)) {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(p)
}
