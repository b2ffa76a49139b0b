package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/chapterly/internal/booksearch"
	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/shared"
	"github.com/julianstephens/chapterly/internal/storage"
	"github.com/julianstephens/chapterly/internal/validation"
)

var errNoUser = errors.New("missing X-User-ID header")

// respondError maps service errors to HTTP responses. Validation failures
// carry a field to message map; everything else gets {"error": message}.
func respondError(c *gin.Context, err error) {
	if fields, ok := validation.AsFieldErrors(err); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, fields)
		return
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errNoUser):
		code = http.StatusUnauthorized
	case errors.Is(err, storage.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, shared.ErrAlreadyMember), errors.Is(err, storage.ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, shared.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, booksearch.ErrNoKey):
		code = http.StatusServiceUnavailable
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		logger.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		msg = http.StatusText(code)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

// bind decodes the JSON body into req and validates it.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	if err := validation.Struct(req); err != nil {
		respondError(c, err)
		return false
	}
	return true
}
