package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit 全域請求體大小限制
// 超出時讀取會得到 *http.MaxBytesError，由 Handler 綁定時回應 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
