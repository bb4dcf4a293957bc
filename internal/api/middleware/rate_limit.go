package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KHMER0/sale-system/config"
	"github.com/KHMER0/sale-system/pkg/response"
)

// RateLimiter 由 pkg/redis.Client 實作（滑動視窗）
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 限流中介層
// 已認證的請求以使用者計數，否則以來源 IP 計數；limiter 為 nil 或 Redis 出錯時放行
func RateLimit(limiter RateLimiter, scope string, cfg config.RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || cfg.Requests <= 0 || cfg.Window <= 0 {
			c.Next()
			return
		}

		subject := "ip:" + c.ClientIP()
		if v, ok := c.Get("user_id"); ok {
			subject = fmt.Sprintf("user:%v", v)
		}
		key := fmt.Sprintf("rate_limit:%s:%s", scope, subject)

		allowed, err := limiter.CheckRateLimit(c.Request.Context(), key, cfg.Requests, cfg.Window)
		if err != nil {
			logger.Warn("限流檢查失敗，放行請求", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			response.Error(c, http.StatusTooManyRequests, response.CodeTooManyRequests, "請求過於頻繁，請稍後再試")
			c.Abort()
			return
		}

		c.Next()
	}
}
