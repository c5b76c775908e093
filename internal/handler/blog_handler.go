package handler

import (
	"net/http"

	"quill-ai-go/internal/service"

	"github.com/gin-gonic/gin"
)

// BlogHandler 负责处理写作辅助相关的 API 请求。
type BlogHandler struct {
	blogService service.BlogService
}

// NewBlogHandler 创建一个新的 BlogHandler 实例。
func NewBlogHandler(blogService service.BlogService) *BlogHandler {
	return &BlogHandler{blogService: blogService}
}

// DraftRequest 是生成草稿的请求体。
type DraftRequest struct {
	Topic    string `json:"topic" binding:"notblank,max=500"`
	Tone     string `json:"tone" binding:"max=50"`
	Length   string `json:"length" binding:"omitempty,oneof=short medium long"`
	Keywords string `json:"keywords" binding:"max=500"`
	Audience string `json:"audience" binding:"max=100"`
}

// GenerateDraft 处理 POST /ai/blog/generate-draft/。
func (h *BlogHandler) GenerateDraft(c *gin.Context) {
	var req DraftRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	res, err := h.blogService.GenerateDraft(c.Request.Context(), caller, service.DraftInput{
		Topic:    req.Topic,
		Tone:     req.Tone,
		Length:   req.Length,
		Keywords: req.Keywords,
		Audience: req.Audience,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ImproveRequest 是内容改进的请求体。
type ImproveRequest struct {
	Content  string `json:"content" binding:"notblank,max=50000"`
	Type     string `json:"type" binding:"omitempty,oneof=readability clarity engagement grammar seo"`
	Audience string `json:"audience" binding:"max=100"`
}

// ImproveContent 处理 POST /ai/blog/improve-content/。
func (h *BlogHandler) ImproveContent(c *gin.Context) {
	var req ImproveRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	res, err := h.blogService.ImproveContent(c.Request.Context(), caller, service.ImproveInput{
		Content:  req.Content,
		Type:     req.Type,
		Audience: req.Audience,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// TitleRequest 是生成标题的请求体。
type TitleRequest struct {
	Topic       string `json:"topic" binding:"notblank,max=500"`
	Keyword     string `json:"keyword" binding:"max=100"`
	Tone        string `json:"tone" binding:"max=50"`
	ContentType string `json:"content_type" binding:"max=50"`
}

// GenerateTitle 处理 POST /ai/blog/generate-title/。
func (h *BlogHandler) GenerateTitle(c *gin.Context) {
	var req TitleRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	res, err := h.blogService.GenerateTitles(c.Request.Context(), caller, service.TitleInput{
		Topic:       req.Topic,
		Keyword:     req.Keyword,
		Tone:        req.Tone,
		ContentType: req.ContentType,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SEORequest 是 SEO 优化的请求体。
type SEORequest struct {
	Title   string `json:"title" binding:"notblank,max=300"`
	Content string `json:"content" binding:"notblank,max=50000"`
	Keyword string `json:"keyword" binding:"notblank,max=100"`
}

// OptimizeSEO 处理 POST /ai/blog/seo-optimize/。
func (h *BlogHandler) OptimizeSEO(c *gin.Context) {
	var req SEORequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	res, err := h.blogService.OptimizeSEO(c.Request.Context(), caller, service.SEOInput{
		Title:   req.Title,
		Content: req.Content,
		Keyword: req.Keyword,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ToneRequest 是语气分析的请求体。
type ToneRequest struct {
	Content string `json:"content" binding:"notblank,max=50000"`
}

// AnalyzeTone 处理 POST /ai/blog/analyze-tone/。
func (h *BlogHandler) AnalyzeTone(c *gin.Context) {
	var req ToneRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	res, err := h.blogService.AnalyzeTone(c.Request.Context(), caller, service.ToneInput{Content: req.Content})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// TagRequest 是标签建议的请求体，content 与 title 至少提供一个。
type TagRequest struct {
	Content  string `json:"content" binding:"max=50000"`
	Title    string `json:"title" binding:"max=300"`
	Category string `json:"category" binding:"max=100"`
}

// GenerateTags 处理 POST /ai/blog/generate-tags/。
func (h *BlogHandler) GenerateTags(c *gin.Context) {
	var req TagRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	res, err := h.blogService.SuggestTags(c.Request.Context(), caller, service.TagInput{
		Content:  req.Content,
		Title:    req.Title,
		Category: req.Category,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
