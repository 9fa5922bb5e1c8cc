// Package middleware holds transport middleware that is not tied to a
// single subsystem.
package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	MinSize          int      // Minimum response size to compress (bytes)
	CompressionLevel int      // Gzip compression level (1-9, 9 is best compression)
	ContentTypes     []string // Content types to compress
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024, // Compress responses >= 1KB
		CompressionLevel: 6,    // Balanced compression level
		ContentTypes: []string{
			"application/json",
			"text/plain",
			"text/html",
			"text/css",
			"application/javascript",
			"application/xml",
			"text/xml",
		},
	}
}

// CompressionMiddleware provides gzip compression for HTTP responses
type CompressionMiddleware struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool // Pool of gzip writers for better performance
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	level := config.CompressionLevel
	if level < gzip.BestSpeed || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}

	return &CompressionMiddleware{
		config: config,
		stats:  NewCompressionStats(),
		pool: sync.Pool{
			New: func() interface{} {
				gz, _ := gzip.NewWriterLevel(io.Discard, level)
				return gz
			},
		},
	}
}

// Handler returns a Gin middleware function for response compression.
// The compress-or-not decision is deferred to the first body write so
// the content type and size are known.
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cm.clientAcceptsGzip(c.Request) {
			c.Next()
			return
		}

		gz := cm.getGzipWriter()
		writer := &gzipResponseWriter{
			ResponseWriter: c.Writer,
			middleware:     cm,
			gz:             gz,
		}

		c.Writer = writer
		c.Next()
		c.Writer = writer.ResponseWriter

		writer.finish()
		cm.returnGzipWriter(gz)
	}
}

// clientAcceptsGzip checks if the client accepts gzip compression
func (cm *CompressionMiddleware) clientAcceptsGzip(r *http.Request) bool {
	acceptEncoding := r.Header.Get("Accept-Encoding")
	return strings.Contains(acceptEncoding, "gzip")
}

// shouldCompress checks if the content type should be compressed
func (cm *CompressionMiddleware) shouldCompress(contentType string) bool {
	for _, ct := range cm.config.ContentTypes {
		if strings.Contains(contentType, ct) {
			return true
		}
	}
	return false
}

// getGzipWriter gets a gzip writer from the pool
func (cm *CompressionMiddleware) getGzipWriter() *gzip.Writer {
	return cm.pool.Get().(*gzip.Writer)
}

// returnGzipWriter returns a gzip writer to the pool
func (cm *CompressionMiddleware) returnGzipWriter(gz *gzip.Writer) {
	gz.Reset(io.Discard)
	cm.pool.Put(gz)
}

// GetStats returns compression statistics
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	return cm.stats.GetStats()
}

// gzipResponseWriter wraps gin's ResponseWriter, routing the body
// through gzip once the first write shows it is worth compressing.
type gzipResponseWriter struct {
	gin.ResponseWriter
	middleware *CompressionMiddleware
	gz         *gzip.Writer
	counter    countingWriter
	decided    bool
	compress   bool
	rawSize    int
}

// Write writes data through the gzip writer
func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	if !w.decided {
		w.decide(len(data))
	}

	w.rawSize += len(data)
	if w.compress {
		return w.gz.Write(data)
	}
	return w.ResponseWriter.Write(data)
}

// WriteString writes a string through the same path as Write
func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// decide inspects the response headers and the first chunk, picking
// pass-through or gzip. Headers are still unsent at this point because
// gin flushes them on the first underlying write.
func (w *gzipResponseWriter) decide(firstChunk int) {
	w.decided = true

	if !w.middleware.shouldCompress(w.Header().Get("Content-Type")) {
		return
	}

	length := firstChunk
	if cl := w.Header().Get("Content-Length"); cl != "" {
		if n, err := strconv.Atoi(cl); err == nil {
			length = n
		}
	}
	if length < w.middleware.config.MinSize {
		return
	}

	w.compress = true
	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Add("Vary", "Accept-Encoding")
	w.Header().Del("Content-Length")

	w.counter = countingWriter{w: w.ResponseWriter}
	w.gz.Reset(&w.counter)
}

// Flush flushes buffered compressed data to the client
func (w *gzipResponseWriter) Flush() {
	if w.compress {
		w.gz.Flush()
	}
	w.ResponseWriter.Flush()
}

// finish closes the gzip stream and records the request's stats
func (w *gzipResponseWriter) finish() {
	if w.compress {
		w.gz.Close()
		w.middleware.stats.RecordRequest(int64(w.rawSize), w.counter.n, true)
		return
	}
	w.middleware.stats.RecordRequest(int64(w.rawSize), int64(w.rawSize), false)
}

// countingWriter counts compressed bytes on their way to the client
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(data []byte) (int, error) {
	n, err := c.w.Write(data)
	c.n += int64(n)
	return n, err
}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	TotalRequests      int64
	CompressedRequests int64
	TotalBytes         int64
	CompressedBytes    int64
	mutex              sync.RWMutex
}

// NewCompressionStats creates new compression statistics
func NewCompressionStats() *CompressionStats {
	return &CompressionStats{}
}

// RecordRequest records a request's compression stats
func (cs *CompressionStats) RecordRequest(originalSize, compressedSize int64, compressed bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.TotalRequests++
	cs.TotalBytes += originalSize

	if compressed {
		cs.CompressedRequests++
		cs.CompressedBytes += compressedSize
	}
}

// GetStats returns current compression statistics
func (cs *CompressionStats) GetStats() map[string]interface{} {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	compressionRatio := float64(0)
	if cs.TotalBytes > 0 {
		compressionRatio = float64(cs.CompressedBytes) / float64(cs.TotalBytes)
	}

	return map[string]interface{}{
		"total_requests":      cs.TotalRequests,
		"compressed_requests": cs.CompressedRequests,
		"total_bytes":         cs.TotalBytes,
		"compressed_bytes":    cs.CompressedBytes,
		"compression_ratio":   compressionRatio,
		"compression_savings": 1.0 - compressionRatio,
		"compression_enabled": cs.TotalRequests > 0 && cs.CompressedRequests > 0,
	}
}
