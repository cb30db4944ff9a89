package middleware

import (
	"github.com/gin-gonic/gin"

	"funglish/internal/pkg/id"
)

const requestIDHeader = "X-Request-ID"

// RequestID 请求ID中间件
// 客户端带了 X-Request-ID 就沿用，否则生成一个，并回写到响应头。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = id.New()
		}

		c.Set("request_id", rid)
		c.Writer.Header().Set(requestIDHeader, rid)

		c.Next()
	}
}
