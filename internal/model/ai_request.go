package model

import "time"

// RequestType 标识一次 AI 调用所属的功能。
type RequestType string

const (
	RequestBlogDraft       RequestType = "blog_draft"
	RequestBlogImprove     RequestType = "blog_improve"
	RequestTitleGeneration RequestType = "title_generation"
	RequestSEOOptimization RequestType = "seo_optimization"
	RequestToneAnalysis    RequestType = "tone_analysis"
	RequestTagSuggestion   RequestType = "tag_suggestion"
)

// AIRequest 状态。记录只在调用结束后写入一次，因此没有 pending/processing。
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AIRequest 对应 'ai_requests' 表，是每次 Provider 调用的审计记录。
// 记录创建后不可修改。
type AIRequest struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	RequestID      string      `gorm:"type:char(36);uniqueIndex;not null" json:"requestId"`
	UserID         uint        `gorm:"index;not null" json:"userId"`
	Provider       string      `gorm:"type:varchar(32);not null" json:"provider"`
	Model          string      `gorm:"type:varchar(128)" json:"model"`
	RequestType    RequestType `gorm:"type:varchar(32);index;not null" json:"requestType"`
	InputText      string      `gorm:"type:text" json:"inputText"`
	PromptTemplate string      `gorm:"type:varchar(64)" json:"promptTemplate"`
	Parameters     string      `gorm:"type:text" json:"parameters"` // JSON 编码的请求字段
	OutputText     string      `gorm:"type:text" json:"outputText"`
	TokensUsed     int         `gorm:"not null;default:0" json:"tokensUsed"`
	Cost           float64     `gorm:"not null;default:0" json:"cost"`
	ProcessingTime float64     `gorm:"not null;default:0" json:"processingTime"` // 秒
	Status         string      `gorm:"type:varchar(16);index;not null" json:"status"`
	ErrorMessage   string      `gorm:"type:text" json:"errorMessage,omitempty"`
	IPAddress      string      `gorm:"type:varchar(64)" json:"ipAddress,omitempty"`
	UserAgent      string      `gorm:"type:varchar(512)" json:"userAgent,omitempty"`
	CreatedAt      time.Time   `gorm:"autoCreateTime;index" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (AIRequest) TableName() string {
	return "ai_requests"
}
