package handler

import (
	"net/http"
	"strconv"

	"quill-ai-go/internal/service"
	"quill-ai-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AdminHandler 负责处理所有与管理员相关的 API 请求。
type AdminHandler struct {
	usageService service.UsageService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(usageService service.UsageService) *AdminHandler {
	return &AdminHandler{usageService: usageService}
}

// GetAnalytics 返回全站的请求统计。
func (h *AdminHandler) GetAnalytics(c *gin.Context) {
	out, err := h.usageService.Analytics(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// UpdateQuotaRequest 是调整用户配额上限的请求体。token_limit 省略时为 0（不限制 token）。
type UpdateQuotaRequest struct {
	RequestLimit *int `json:"request_limit" binding:"required,min=0"`
	TokenLimit   *int `json:"token_limit" binding:"omitempty,min=0"`
}

// UpdateQuota 处理 PUT /ai/admin/quotas/:userId。
func (h *AdminHandler) UpdateQuota(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || userID == 0 {
		writeError(c, &service.ValidationError{Invalid: []string{"userId"}})
		return
	}
	var req UpdateQuotaRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	tokenLimit := 0
	if req.TokenLimit != nil {
		tokenLimit = *req.TokenLimit
	}

	q, err := h.usageService.UpdateLimits(c.Request.Context(), uint(userID), *req.RequestLimit, tokenLimit)
	if err != nil {
		writeError(c, err)
		return
	}
	log.Infof("Admin updated quota for user %d", userID)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": q})
}
