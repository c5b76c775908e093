package handler

import (
	"net/http"
	"strconv"

	"quill-ai-go/internal/service"

	"github.com/gin-gonic/gin"
)

// UsageHandler 提供用量查询、历史检索和导出接口。
type UsageHandler struct {
	usageService service.UsageService
	aiService    service.AIService
}

// NewUsageHandler 创建一个新的 UsageHandler 实例。
func NewUsageHandler(usageService service.UsageService, aiService service.AIService) *UsageHandler {
	return &UsageHandler{usageService: usageService, aiService: aiService}
}

// GetUsage 处理 GET /ai/usage/。
func (h *UsageHandler) GetUsage(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	summary, err := h.usageService.Summary(c.Request.Context(), caller.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SearchHistory 处理 GET /ai/usage/search?q=...&size=...
func (h *UsageHandler) SearchHistory(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	q := c.Query("q")
	if q == "" {
		writeError(c, &service.ValidationError{Missing: []string{"q"}})
		return
	}
	size := 0
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, &service.ValidationError{Invalid: []string{"size"}})
			return
		}
		size = n
	}

	docs, err := h.usageService.Search(c.Request.Context(), caller.UserID, q, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": docs, "count": len(docs)})
}

// Export 处理 GET /ai/usage/export，返回 CSV 的下载链接。
func (h *UsageHandler) Export(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	res, err := h.usageService.Export(c.Request.Context(), caller.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListModels 处理 GET /ai/models/，返回当前 Provider 的配置。
func (h *UsageHandler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": []service.ProviderInfo{h.aiService.Info()}})
}
