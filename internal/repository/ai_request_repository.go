package repository

import (
	"context"

	"quill-ai-go/internal/model"

	"gorm.io/gorm"
)

// NamedCount 是按某一维度分组的计数结果。
type NamedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// RequestStats 是全站 AI 请求的汇总统计。
type RequestStats struct {
	Total         int64        `json:"total_requests"`
	Successful    int64        `json:"successful_requests"`
	TotalTokens   int64        `json:"total_tokens"`
	ByRequestType []NamedCount `json:"by_request_type"`
	ByProvider    []NamedCount `json:"by_provider"`
}

// AIRequestRepository 定义了 AI 请求审计记录的操作。只有插入，没有更新。
type AIRequestRepository interface {
	Create(ctx context.Context, req *model.AIRequest) error
	ListRecentByUser(ctx context.Context, userID uint, limit int) ([]model.AIRequest, error)
	ListByUser(ctx context.Context, userID uint) ([]model.AIRequest, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	Stats(ctx context.Context) (*RequestStats, error)
}

type aiRequestRepository struct {
	db *gorm.DB
}

// NewAIRequestRepository 创建一个新的 AIRequestRepository 实例。
func NewAIRequestRepository(db *gorm.DB) AIRequestRepository {
	return &aiRequestRepository{db: db}
}

func (r *aiRequestRepository) Create(ctx context.Context, req *model.AIRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// ListRecentByUser 按创建时间倒序返回用户最近的请求。
func (r *aiRequestRepository) ListRecentByUser(ctx context.Context, userID uint, limit int) ([]model.AIRequest, error) {
	var out []model.AIRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListByUser 按时间正序返回用户的全部请求，用于导出。
func (r *aiRequestRepository) ListByUser(ctx context.Context, userID uint) ([]model.AIRequest, error) {
	var out []model.AIRequest
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *aiRequestRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.AIRequest{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *aiRequestRepository) Stats(ctx context.Context) (*RequestStats, error) {
	db := r.db.WithContext(ctx)
	stats := &RequestStats{}

	if err := db.Model(&model.AIRequest{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.AIRequest{}).Where("status = ?", model.StatusCompleted).Count(&stats.Successful).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.AIRequest{}).Select("COALESCE(SUM(tokens_used), 0)").Scan(&stats.TotalTokens).Error; err != nil {
		return nil, err
	}
	if err := r.groupCount(db, "request_type", &stats.ByRequestType); err != nil {
		return nil, err
	}
	if err := r.groupCount(db, "provider", &stats.ByProvider); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *aiRequestRepository) groupCount(db *gorm.DB, column string, out *[]NamedCount) error {
	return db.Model(&model.AIRequest{}).
		Select(column + " AS name, COUNT(*) AS count").
		Group(column).
		Order("count DESC, name ASC").
		Scan(out).Error
}
