package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quill-ai-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrQuotaExhausted 表示带条件的配额递增没有命中任何行：
// 用户已用满当前周期的请求次数。
var ErrQuotaExhausted = errors.New("usage quota exhausted")

// QuotaDefaults 是首次为用户创建配额行时使用的默认值。
type QuotaDefaults struct {
	RequestLimit int
	TokenLimit   int
	Period       string
}

// UsageRepository 定义了用户配额的持久化操作。
type UsageRepository interface {
	// GetOrCreate 读取用户配额，不存在时按默认值创建。
	GetOrCreate(ctx context.Context, userID uint) (*model.UsageQuota, error)
	// RecordSuccess 在同一事务中递增配额并插入审计记录，二者要么都成功，要么都不生效。
	RecordSuccess(ctx context.Context, req *model.AIRequest) error
	// UpdateLimits 修改用户的周期上限。
	UpdateLimits(ctx context.Context, userID uint, requestLimit, tokenLimit int) (*model.UsageQuota, error)
	// ResetPeriod 将周期起点早于 periodStart 的所有配额清零，返回受影响行数。
	ResetPeriod(ctx context.Context, periodStart time.Time) (int64, error)
}

type usageRepository struct {
	db       *gorm.DB
	defaults QuotaDefaults
}

// NewUsageRepository 创建一个新的 UsageRepository 实例。
func NewUsageRepository(db *gorm.DB, defaults QuotaDefaults) UsageRepository {
	return &usageRepository{db: db, defaults: defaults}
}

func (r *usageRepository) GetOrCreate(ctx context.Context, userID uint) (*model.UsageQuota, error) {
	db := r.db.WithContext(ctx)

	var q model.UsageQuota
	err := db.First(&q, "user_id = ?", userID).Error
	if err == nil {
		return &q, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询用户配额失败: %w", err)
	}

	// 并发首次请求时只有一方插入成功，另一方忽略冲突后重新读取
	fresh := model.UsageQuota{
		UserID:       userID,
		PeriodStart:  model.PeriodStartFor(time.Now(), r.defaults.Period),
		RequestLimit: r.defaults.RequestLimit,
		TokenLimit:   r.defaults.TokenLimit,
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("创建用户配额失败: %w", err)
	}
	if err := db.First(&q, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("查询用户配额失败: %w", err)
	}
	return &q, nil
}

func (r *usageRepository) RecordSuccess(ctx context.Context, req *model.AIRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&model.UsageQuota{}).
			Where("user_id = ? AND requests_used < request_limit", req.UserID).
			Updates(map[string]interface{}{
				"requests_used":   gorm.Expr("requests_used + ?", 1),
				"tokens_used":     gorm.Expr("tokens_used + ?", req.TokensUsed),
				"total_requests":  gorm.Expr("total_requests + ?", 1),
				"total_tokens":    gorm.Expr("total_tokens + ?", req.TokensUsed),
				"last_request_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("递增用户配额失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrQuotaExhausted
		}
		if err := tx.Create(req).Error; err != nil {
			return fmt.Errorf("写入 AI 请求记录失败: %w", err)
		}
		return nil
	})
}

func (r *usageRepository) UpdateLimits(ctx context.Context, userID uint, requestLimit, tokenLimit int) (*model.UsageQuota, error) {
	if _, err := r.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Model(&model.UsageQuota{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"request_limit": requestLimit,
			"token_limit":   tokenLimit,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("更新用户配额上限失败: %w", err)
	}
	return r.GetOrCreate(ctx, userID)
}

func (r *usageRepository) ResetPeriod(ctx context.Context, periodStart time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.UsageQuota{}).
		Where("period_start < ?", periodStart).
		Updates(map[string]interface{}{
			"requests_used": 0,
			"tokens_used":   0,
			"period_start":  periodStart,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("重置用户配额失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}
