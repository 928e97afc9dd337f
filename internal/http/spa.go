package http

import (
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// IndexCache serves the SPA entry file through a process-wide
// read-through cache: the file is read once on first miss and held for
// the lifetime of the process. The entry file is immutable per
// deployment, so no invalidation exists.
type IndexCache struct {
	path string

	mu   sync.RWMutex
	data []byte
}

// NewIndexCache creates a cache over the given entry file path. The
// file is not read until the first request.
func NewIndexCache(path string) *IndexCache {
	return &IndexCache{path: path}
}

// Content returns the entry file bytes, loading them on first call.
func (ic *IndexCache) Content() ([]byte, error) {
	ic.mu.RLock()
	data := ic.data
	ic.mu.RUnlock()
	if data != nil {
		return data, nil
	}

	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.data != nil {
		return ic.data, nil
	}

	data, err := os.ReadFile(ic.path)
	if err != nil {
		return nil, err
	}
	ic.data = data
	return data, nil
}

// Serve writes the cached entry file as an HTML response.
func (ic *IndexCache) Serve(c *gin.Context) {
	data, err := ic.Content()
	if err != nil {
		respondInternalError(c, err, "read index file")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// SPAFallback serves the entry file for any unmatched non-API route so
// client-side routing works on deep links.
func (ic *IndexCache) SPAFallback(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") ||
		strings.HasPrefix(c.Request.URL.Path, "/uploads/") {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}
	ic.Serve(c)
}
