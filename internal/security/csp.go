package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	nonceKey  = "csp-nonce"
	nonceSize = 32
)

// GenerateNonce returns a fresh base64 nonce for script and style tags.
func GenerateNonce() (string, error) {
	raw := make([]byte, nonceSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate csp nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// CSPMiddleware mints a nonce per request, exposes it via GetNonce for
// the page renderer, and emits the matching Content-Security-Policy
// header.
func CSPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce, err := GenerateNonce()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(nonceKey, nonce)

		policy := buildCSPPolicy(nonce)
		c.Header("Content-Security-Policy", policy)

		if os.Getenv("ENABLE_CSP_REPORT") == "true" {
			if reportURI := os.Getenv("CSP_REPORT_URI"); reportURI != "" {
				c.Header("Content-Security-Policy-Report-Only", policy+"; report-uri "+reportURI)
			}
		}

		c.Next()
	}
}

// GetNonce returns the request's CSP nonce, or "" outside the middleware.
func GetNonce(c *gin.Context) string {
	nonce, _ := c.Get(nonceKey)
	s, _ := nonce.(string)
	return s
}

// buildCSPPolicy assembles the policy around the nonce. The Tailwind CDN
// is the only external script source; the embedded page needs it.
func buildCSPPolicy(nonce string) string {
	directives := []string{
		"default-src 'self'",
		fmt.Sprintf("script-src 'self' 'nonce-%s' https://cdn.tailwindcss.com", nonce),
		fmt.Sprintf("style-src 'self' 'nonce-%s' 'unsafe-inline'", nonce),
		"img-src 'self' data: https:",
		"font-src 'self' data:",
		"connect-src 'self'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(directives, "; ")
}
