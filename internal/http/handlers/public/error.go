package public

import (
	"github.com/cafe-next/internal/http/response"
	"github.com/cafe-next/internal/logger"

	"github.com/gin-gonic/gin"
)

// respondError 返回错误响应，并在有原始错误时记录日志
func respondError(c *gin.Context, code int, msg string, err error) {
	if err != nil {
		log := logger.S()
		if requestID, ok := c.Get("request_id"); ok {
			if id, ok := requestID.(string); ok && id != "" {
				log = logger.SW("request_id", id)
			}
		}
		log.Errorw("handler_error",
			"code", code,
			"message", msg,
			"error", err,
		)
	}
	response.Error(c, code, msg)
}
