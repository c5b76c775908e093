// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"quill-ai-go/internal/model"
	"quill-ai-go/internal/repository"
	"quill-ai-go/pkg/events"
	"quill-ai-go/pkg/llm"
	"quill-ai-go/pkg/log"

	"github.com/google/uuid"
)

// Publisher 发布用量事件。实现不可用时可以传 nil。
type Publisher interface {
	Publish(ctx context.Context, event events.UsageEvent) error
}

// Caller 是发起请求的用户及其客户端信息。
type Caller struct {
	UserID    uint
	IPAddress string
	UserAgent string
}

// Call 是一次 Provider 调用的全部输入。
type Call struct {
	Caller      Caller
	RequestType model.RequestType
	Template    string
	Prompt      string
	// InputText 是写入审计记录的原始输入，为空时使用 Prompt。
	InputText  string
	Parameters map[string]string
}

// Outcome 是一次成功调用的结果。
type Outcome struct {
	RequestID      string
	Text           string
	TokensUsed     int
	ProcessingTime float64
}

// AIOptions 配置调用的限流、计费与生成参数。
type AIOptions struct {
	RateLimitPerMinute int
	CostPer1KTokens    float64
	Params             *llm.GenerationParams
}

// ProviderInfo 描述当前配置的 Provider，供 /ai/models/ 返回。
type ProviderInfo struct {
	Provider           string                `json:"provider"`
	Model              string                `json:"model"`
	Parameters         *llm.GenerationParams `json:"parameters"`
	RateLimitPerMinute int                   `json:"rate_limit_per_minute"`
	CostPer1KTokens    float64               `json:"cost_per_1k_tokens"`
}

// AIService 编排一次 AI 调用：配额检查、限流、调用 Provider、记录用量。
type AIService interface {
	Execute(ctx context.Context, call Call) (*Outcome, error)
	Info() ProviderInfo
}

type aiService struct {
	provider    llm.Provider
	usageRepo   repository.UsageRepository
	requestRepo repository.AIRequestRepository
	rateLimiter repository.RateLimitRepository
	publisher   Publisher
	opts        AIOptions
	now         func() time.Time
}

// NewAIService 创建一个新的 AIService 实例。rateLimiter 与 publisher 可以为 nil。
func NewAIService(
	provider llm.Provider,
	usageRepo repository.UsageRepository,
	requestRepo repository.AIRequestRepository,
	rateLimiter repository.RateLimitRepository,
	publisher Publisher,
	opts AIOptions,
) AIService {
	return &aiService{
		provider:    provider,
		usageRepo:   usageRepo,
		requestRepo: requestRepo,
		rateLimiter: rateLimiter,
		publisher:   publisher,
		opts:        opts,
		now:         time.Now,
	}
}

func (s *aiService) Info() ProviderInfo {
	return ProviderInfo{
		Provider:           s.provider.Name(),
		Model:              s.provider.Model(),
		Parameters:         s.opts.Params,
		RateLimitPerMinute: s.opts.RateLimitPerMinute,
		CostPer1KTokens:    s.opts.CostPer1KTokens,
	}
}

// Execute 在调用 Provider 之前检查配额；成功后在一个事务中递增配额并写入审计记录。
func (s *aiService) Execute(ctx context.Context, call Call) (*Outcome, error) {
	// 1. 配额预检查，超额时不调用 Provider
	quota, err := s.usageRepo.GetOrCreate(ctx, call.Caller.UserID)
	if err != nil {
		log.Errorf("[AIService] 读取用户配额失败, user_id: %d, error: %v", call.Caller.UserID, err)
		return nil, fmt.Errorf("%w: %v", ErrRecordFailed, err)
	}
	if quota.Exhausted() {
		log.Infow("[AIService] 用户配额已用完", "user_id", call.Caller.UserID, "request_type", call.RequestType)
		return nil, ErrQuotaExceeded
	}

	// 2. Provider 级别的固定窗口限流
	if err := s.checkRateLimit(ctx); err != nil {
		return nil, err
	}

	// 3. 调用 Provider
	requestID := uuid.NewString()
	start := s.now()
	completion, genErr := s.provider.Generate(ctx, call.Prompt, s.opts.Params)
	elapsed := roundTo(s.now().Sub(start).Seconds(), 3)

	record := s.newRecord(requestID, call, elapsed)
	// 记录写入不受客户端断开影响
	writeCtx := context.WithoutCancel(ctx)

	if genErr != nil {
		record.Status = model.StatusFailed
		record.ErrorMessage = genErr.Error()
		if err := s.requestRepo.Create(writeCtx, record); err != nil {
			log.Errorw("[AIService] 写入失败请求记录出错", "request_id", requestID, "error", err)
		}
		log.Warnw("[AIService] Provider 调用失败", "request_id", requestID, "provider", s.provider.Name(), "error", genErr)
		s.publish(writeCtx, record)
		return nil, genErr
	}

	// 4. 成功：配额 +1 与审计记录在同一事务中提交
	record.Status = model.StatusCompleted
	record.OutputText = completion.Text
	record.TokensUsed = completion.TokensUsed
	record.Cost = roundTo(float64(completion.TokensUsed)/1000*s.opts.CostPer1KTokens, 6)
	if err := s.usageRepo.RecordSuccess(writeCtx, record); err != nil {
		if errors.Is(err, repository.ErrQuotaExhausted) {
			// 并发请求抢先用掉了最后一次额度
			log.Warnw("[AIService] 提交时配额已用完", "request_id", requestID, "user_id", call.Caller.UserID)
			return nil, ErrQuotaExceeded
		}
		log.Errorw("[AIService] 记录用量失败，Provider 已成功返回", "request_id", requestID, "user_id", call.Caller.UserID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRecordFailed, err)
	}

	log.Infow("[AIService] AI 请求完成", "request_id", requestID, "request_type", call.RequestType,
		"tokens", record.TokensUsed, "processing_time", elapsed)
	s.publish(writeCtx, record)

	return &Outcome{
		RequestID:      requestID,
		Text:           completion.Text,
		TokensUsed:     completion.TokensUsed,
		ProcessingTime: elapsed,
	}, nil
}

func (s *aiService) checkRateLimit(ctx context.Context) error {
	if s.rateLimiter == nil || s.opts.RateLimitPerMinute <= 0 {
		return nil
	}
	ok, err := s.rateLimiter.Allow(ctx, "provider:"+s.provider.Name(), s.opts.RateLimitPerMinute, time.Minute)
	if err != nil {
		// Redis 不可用时放行，不影响主流程
		log.Warnf("[AIService] 限流检查失败，放行请求: %v", err)
		return nil
	}
	if !ok {
		return ErrRateLimited
	}
	return nil
}

func (s *aiService) newRecord(requestID string, call Call, elapsed float64) *model.AIRequest {
	input := call.InputText
	if input == "" {
		input = call.Prompt
	}
	params := "{}"
	if len(call.Parameters) > 0 {
		if b, err := json.Marshal(call.Parameters); err == nil {
			params = string(b)
		}
	}
	return &model.AIRequest{
		RequestID:      requestID,
		UserID:         call.Caller.UserID,
		Provider:       s.provider.Name(),
		Model:          s.provider.Model(),
		RequestType:    call.RequestType,
		InputText:      input,
		PromptTemplate: call.Template,
		Parameters:     params,
		ProcessingTime: elapsed,
		IPAddress:      call.Caller.IPAddress,
		UserAgent:      call.Caller.UserAgent,
		CreatedAt:      s.now(),
	}
}

func (s *aiService) publish(ctx context.Context, r *model.AIRequest) {
	if s.publisher == nil {
		return
	}
	event := events.UsageEvent{
		RequestID:      r.RequestID,
		UserID:         r.UserID,
		Provider:       r.Provider,
		Model:          r.Model,
		RequestType:    string(r.RequestType),
		Status:         r.Status,
		InputText:      r.InputText,
		OutputText:     r.OutputText,
		TokensUsed:     r.TokensUsed,
		Cost:           r.Cost,
		ProcessingTime: r.ProcessingTime,
		CreatedAt:      r.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warnf("[AIService] 发布用量事件失败, request_id: %s, error: %v", r.RequestID, err)
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
