package model

import "time"

// UsageQuota 对应 'usage_quotas' 表，每个用户一行。
// RequestsUsed <= RequestLimit 由带条件的 UPDATE 保证；TokenLimit 为 0 表示不限制。
type UsageQuota struct {
	UserID        uint       `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	PeriodStart   time.Time  `gorm:"not null" json:"periodStart"`
	RequestsUsed  int        `gorm:"not null;default:0" json:"requestsUsed"`
	RequestLimit  int        `gorm:"not null" json:"requestLimit"`
	TokensUsed    int        `gorm:"not null;default:0" json:"tokensUsed"`
	TokenLimit    int        `gorm:"not null;default:0" json:"tokenLimit"`
	TotalRequests int        `gorm:"not null;default:0" json:"totalRequests"`
	TotalTokens   int        `gorm:"not null;default:0" json:"totalTokens"`
	LastRequestAt *time.Time `json:"lastRequestAt"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (UsageQuota) TableName() string {
	return "usage_quotas"
}

// Exhausted 报告当前周期内是否已无可用额度。
func (q *UsageQuota) Exhausted() bool {
	if q.RequestsUsed >= q.RequestLimit {
		return true
	}
	return q.TokenLimit > 0 && q.TokensUsed >= q.TokenLimit
}

// Remaining 返回当前周期剩余的请求次数。
func (q *UsageQuota) Remaining() int {
	if r := q.RequestLimit - q.RequestsUsed; r > 0 {
		return r
	}
	return 0
}

// PeriodStartFor 计算 t 所在配额周期的起点（UTC）。period 为 daily 或 monthly。
func PeriodStartFor(t time.Time, period string) time.Time {
	t = t.UTC()
	if period == "daily" {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AllModels 返回需要迁移的全部模型。
func AllModels() []interface{} {
	return []interface{}{&User{}, &AIRequest{}, &UsageQuota{}}
}
