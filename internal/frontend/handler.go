package frontend

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhigyan2003/github-repo-ai-agent/internal/security"
)

// NewPageHandler serves the analyzer page. The CSP middleware normally
// supplies the nonce; a handler mounted without it mints its own so the
// page still renders.
func NewPageHandler(indexTemplate *template.Template) gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce := security.GetNonce(c)
		if nonce == "" {
			fresh, err := security.GenerateNonce()
			if err != nil {
				slog.Error("Failed to generate page nonce", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			nonce = fresh
		}

		if err := RenderIndex(c, indexTemplate, nonce); err != nil {
			slog.Error("Failed to render analyzer page", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to render page"})
		}
	}
}
