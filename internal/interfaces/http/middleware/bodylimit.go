package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit rejects requests whose declared Content-Length exceeds
// maxBytes and caps streaming bodies at the same size. Oversized
// streamed bodies surface as read errors in the handler.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength <= maxBytes {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REQUEST_TOO_LARGE",
				"message": "Request body exceeds maximum allowed size",
			},
		})
	}
}
