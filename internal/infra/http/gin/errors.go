package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayloop/internal/app/fault"
	"stayloop/internal/app/uow"
)

// respondError converts application faults into the HTTP contract. Anything
// not classified is an internal error and gets logged.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var f *fault.Fault
	if errors.As(err, &f) {
		body := gin.H{"error": f.Message, "kind": string(f.Kind)}
		if f.Rule != "" {
			body["rule"] = f.Rule
		}
		status := f.HTTPStatus()
		if status >= 500 && logger != nil {
			logger.Error("request failed", "kind", f.Kind, "error", err, "path", c.FullPath())
		}
		c.JSON(status, body)
		return
	}
	if errors.Is(err, uow.ErrUnitOfWorkMissing) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		return
	}
	if logger != nil {
		logger.Error("request failed", "error", err, "path", c.FullPath())
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
