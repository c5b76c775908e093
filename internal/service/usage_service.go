package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"quill-ai-go/internal/model"
	"quill-ai-go/internal/repository"
	"quill-ai-go/pkg/es"
	"quill-ai-go/pkg/log"
)

const (
	recentRequestLimit = 10
	analyticsDays      = 7
	maxSearchSize      = 50
)

// HistorySearcher 在用户的请求历史中做全文检索（Elasticsearch）。
type HistorySearcher interface {
	SearchHistory(ctx context.Context, userID uint, query string, size int) ([]es.HistoryDocument, error)
}

// ObjectStore 保存导出文件并生成下载链接（MinIO）。
type ObjectStore interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
	PresignGet(ctx context.Context, objectName string) (string, error)
}

// QuotaInfo 是用户当前周期的配额情况。
type QuotaInfo struct {
	HasQuota      bool       `json:"has_quota"`
	RequestsUsed  int        `json:"requests_used"`
	RequestsLimit int        `json:"requests_limit"`
	Remaining     int        `json:"remaining"`
	TokensUsed    int        `json:"tokens_used"`
	TokensLimit   int        `json:"tokens_limit"`
	PeriodStart   time.Time  `json:"period_start"`
	TotalRequests int        `json:"lifetime_requests"`
	TotalTokens   int        `json:"lifetime_tokens"`
	LastRequestAt *time.Time `json:"last_request_at"`
}

// RecentRequest 是用量页中的一条最近请求。
type RecentRequest struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	CreatedAt      model.LocalTime `json:"created_at"`
	ProcessingTime float64   `json:"processing_time"`
	TokensUsed     int       `json:"tokens_used"`
}

// UsageSummary 是 /ai/usage/ 的响应。
type UsageSummary struct {
	Quota          QuotaInfo       `json:"quota"`
	RecentRequests []RecentRequest `json:"recent_requests"`
	TotalRequests  int64           `json:"total_requests"`
}

// ExportResult 描述一次 CSV 导出。
type ExportResult struct {
	URL    string `json:"url"`
	Object string `json:"object"`
	Rows   int    `json:"rows"`
}

// Analytics 是管理员看到的全站统计。
type Analytics struct {
	TotalRequests      int64                   `json:"total_requests"`
	SuccessfulRequests int64                   `json:"successful_requests"`
	SuccessRate        float64                 `json:"success_rate"`
	TotalTokens        int64                   `json:"total_tokens"`
	ByRequestType      []repository.NamedCount `json:"by_request_type"`
	ByProvider         []repository.NamedCount `json:"by_provider"`
	Daily              []repository.DailyStat  `json:"daily"`
}

// UsageService 提供用量查询、历史检索、导出与配额管理。
type UsageService interface {
	Summary(ctx context.Context, userID uint) (*UsageSummary, error)
	Search(ctx context.Context, userID uint, query string, size int) ([]es.HistoryDocument, error)
	Export(ctx context.Context, userID uint) (*ExportResult, error)
	Analytics(ctx context.Context) (*Analytics, error)
	UpdateLimits(ctx context.Context, userID uint, requestLimit, tokenLimit int) (*model.UsageQuota, error)
	ResetPeriod(ctx context.Context, now time.Time) (int64, error)
}

type usageService struct {
	usageRepo     repository.UsageRepository
	requestRepo   repository.AIRequestRepository
	userRepo      repository.UserRepository
	analyticsRepo repository.AnalyticsRepository
	searcher      HistorySearcher
	store         ObjectStore
	period        string
	now           func() time.Time
}

// NewUsageService 创建一个新的 UsageService 实例。analyticsRepo、searcher、store 可以为 nil。
func NewUsageService(
	usageRepo repository.UsageRepository,
	requestRepo repository.AIRequestRepository,
	userRepo repository.UserRepository,
	analyticsRepo repository.AnalyticsRepository,
	searcher HistorySearcher,
	store ObjectStore,
	period string,
) UsageService {
	return &usageService{
		usageRepo:     usageRepo,
		requestRepo:   requestRepo,
		userRepo:      userRepo,
		analyticsRepo: analyticsRepo,
		searcher:      searcher,
		store:         store,
		period:        period,
		now:           time.Now,
	}
}

func quotaInfo(q *model.UsageQuota) QuotaInfo {
	return QuotaInfo{
		HasQuota:      !q.Exhausted(),
		RequestsUsed:  q.RequestsUsed,
		RequestsLimit: q.RequestLimit,
		Remaining:     q.Remaining(),
		TokensUsed:    q.TokensUsed,
		TokensLimit:   q.TokenLimit,
		PeriodStart:   q.PeriodStart,
		TotalRequests: q.TotalRequests,
		TotalTokens:   q.TotalTokens,
		LastRequestAt: q.LastRequestAt,
	}
}

func (s *usageService) Summary(ctx context.Context, userID uint) (*UsageSummary, error) {
	q, err := s.usageRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.requestRepo.ListRecentByUser(ctx, userID, recentRequestLimit)
	if err != nil {
		return nil, fmt.Errorf("查询最近请求失败: %w", err)
	}
	total, err := s.requestRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("统计请求数失败: %w", err)
	}

	items := make([]RecentRequest, 0, len(recent))
	for _, r := range recent {
		items = append(items, RecentRequest{
			ID:             r.RequestID,
			Type:           string(r.RequestType),
			Status:         r.Status,
			CreatedAt:      model.LocalTime(r.CreatedAt),
			ProcessingTime: r.ProcessingTime,
			TokensUsed:     r.TokensUsed,
		})
	}
	return &UsageSummary{Quota: quotaInfo(q), RecentRequests: items, TotalRequests: total}, nil
}

func (s *usageService) Search(ctx context.Context, userID uint, query string, size int) ([]es.HistoryDocument, error) {
	if s.searcher == nil {
		return nil, ErrFeatureDisabled
	}
	if size <= 0 || size > maxSearchSize {
		size = recentRequestLimit
	}
	return s.searcher.SearchHistory(ctx, userID, query, size)
}

var exportHeader = []string{
	"request_id", "created_at", "request_type", "provider", "model", "status",
	"tokens_used", "cost", "processing_time", "error_message",
}

func buildCSV(rows []model.AIRequest) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		record := []string{
			r.RequestID,
			model.LocalTime(r.CreatedAt).String(),
			string(r.RequestType),
			r.Provider,
			r.Model,
			r.Status,
			strconv.Itoa(r.TokensUsed),
			strconv.FormatFloat(r.Cost, 'f', 6, 64),
			strconv.FormatFloat(r.ProcessingTime, 'f', 3, 64),
			r.ErrorMessage,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (s *usageService) Export(ctx context.Context, userID uint) (*ExportResult, error) {
	if s.store == nil {
		return nil, ErrFeatureDisabled
	}
	rows, err := s.requestRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询请求记录失败: %w", err)
	}
	data, err := buildCSV(rows)
	if err != nil {
		return nil, fmt.Errorf("生成 CSV 失败: %w", err)
	}

	object := fmt.Sprintf("exports/%d/%s.csv", userID, s.now().UTC().Format("20060102T150405Z"))
	if err := s.store.Put(ctx, object, data, "text/csv"); err != nil {
		return nil, err
	}
	url, err := s.store.PresignGet(ctx, object)
	if err != nil {
		return nil, fmt.Errorf("生成下载链接失败: %w", err)
	}
	log.Infof("[UsageService] 用户 %d 导出 %d 条请求记录到 %s", userID, len(rows), object)
	return &ExportResult{URL: url, Object: object, Rows: len(rows)}, nil
}

func (s *usageService) Analytics(ctx context.Context) (*Analytics, error) {
	stats, err := s.requestRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("统计请求失败: %w", err)
	}
	out := &Analytics{
		TotalRequests:      stats.Total,
		SuccessfulRequests: stats.Successful,
		TotalTokens:        stats.TotalTokens,
		ByRequestType:      stats.ByRequestType,
		ByProvider:         stats.ByProvider,
		Daily:              []repository.DailyStat{},
	}
	if stats.Total > 0 {
		out.SuccessRate = roundTo(float64(stats.Successful)/float64(stats.Total)*100, 2)
	}
	if s.analyticsRepo != nil {
		daily, err := s.analyticsRepo.Daily(ctx, s.now(), analyticsDays)
		if err != nil {
			// 每日计数只是补充信息
			log.Warnf("[UsageService] 读取每日统计失败: %v", err)
		} else {
			out.Daily = daily
		}
	}
	return out, nil
}

func (s *usageService) UpdateLimits(ctx context.Context, userID uint, requestLimit, tokenLimit int) (*model.UsageQuota, error) {
	var invalid []string
	if requestLimit < 0 {
		invalid = append(invalid, "request_limit")
	}
	if tokenLimit < 0 {
		invalid = append(invalid, "token_limit")
	}
	if len(invalid) > 0 {
		return nil, &ValidationError{Invalid: invalid}
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	q, err := s.usageRepo.UpdateLimits(ctx, userID, requestLimit, tokenLimit)
	if err != nil {
		return nil, err
	}
	log.Infof("[UsageService] 用户 %d 配额上限更新为 requests=%d tokens=%d", userID, requestLimit, tokenLimit)
	return q, nil
}

// ResetPeriod 将所有周期起点早于当前周期的配额清零。
func (s *usageService) ResetPeriod(ctx context.Context, now time.Time) (int64, error) {
	start := model.PeriodStartFor(now, s.period)
	n, err := s.usageRepo.ResetPeriod(ctx, start)
	if err != nil {
		return 0, err
	}
	log.Infof("[UsageService] 配额周期重置完成, period_start: %s, rows: %d", start.Format(time.RFC3339), n)
	return n, nil
}
