// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"quill-ai-go/internal/middleware"
	"quill-ai-go/internal/prompt"
	"quill-ai-go/internal/service"
	"quill-ai-go/pkg/llm"
	"quill-ai-go/pkg/log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// statusFor 把业务错误映射为 HTTP 状态码和对外消息。
func statusFor(err error) (int, string) {
	var verr *service.ValidationError
	var perr *llm.ProviderError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, errBadJSON):
		return http.StatusBadRequest, errBadJSON.Error()
	case errors.Is(err, prompt.ErrMissingVariables):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusTooManyRequests, service.ErrQuotaExceeded.Error()
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, service.ErrRateLimited.Error()
	case errors.As(err, &perr):
		if perr.Timeout {
			return http.StatusGatewayTimeout, "AI provider timed out"
		}
		return http.StatusBadGateway, "AI provider request failed"
	case errors.Is(err, service.ErrRecordFailed):
		return http.StatusInternalServerError, service.ErrRecordFailed.Error()
	case errors.Is(err, service.ErrFeatureDisabled):
		return http.StatusServiceUnavailable, service.ErrFeatureDisabled.Error()
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrUserExists):
		return http.StatusConflict, service.ErrUserExists.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, service.ErrInvalidCredentials.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError 按错误类型写出 {"error": msg}。
func writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		log.Warnf("%s %s rejected (%d): %v", c.Request.Method, c.Request.URL.Path, status, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// callerFrom 从上下文取出当前用户和客户端信息。
func callerFrom(c *gin.Context) (service.Caller, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无法获取用户信息"})
		return service.Caller{}, false
	}
	return service.Caller{
		UserID:    user.ID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}, true
}
