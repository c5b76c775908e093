// Package pipeline 处理 Kafka 中的用量事件：写入历史索引并累加每日统计。
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"quill-ai-go/internal/repository"
	"quill-ai-go/pkg/es"
	"quill-ai-go/pkg/events"
	"quill-ai-go/pkg/log"
)

// HistoryIndexer 把一条请求写入历史检索索引。
type HistoryIndexer interface {
	IndexRequest(ctx context.Context, doc es.HistoryDocument) error
}

// Processor 封装了用量事件处理的所有依赖。indexer 与 analytics 任一可以为 nil。
type Processor struct {
	indexer   HistoryIndexer
	analytics repository.AnalyticsRepository
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(indexer HistoryIndexer, analytics repository.AnalyticsRepository) *Processor {
	return &Processor{indexer: indexer, analytics: analytics}
}

// Process 是用量事件处理的主函数。
// 索引以 request_id 为文档 ID，重复投递不会产生重复文档；每日计数在重试时可能被多加。
func (p *Processor) Process(ctx context.Context, event events.UsageEvent) error {
	if event.RequestID == "" {
		return errors.New("用量事件缺少 request_id")
	}
	log.Infof("[Processor] 开始处理用量事件, request_id: %s, type: %s, status: %s", event.RequestID, event.RequestType, event.Status)

	// 1. 写入 Elasticsearch，供历史检索
	if p.indexer != nil {
		if err := p.indexer.IndexRequest(ctx, toDocument(event)); err != nil {
			log.Errorf("[Processor] 索引请求记录失败, request_id: %s, error: %v", event.RequestID, err)
			return fmt.Errorf("索引请求记录失败: %w", err)
		}
	}

	// 2. 累加 Redis 中的每日统计
	if p.analytics != nil {
		err := p.analytics.Increment(ctx, event.CreatedAt, event.RequestType, event.Provider, event.Status, event.TokensUsed)
		if err != nil {
			log.Errorf("[Processor] 更新每日统计失败, request_id: %s, error: %v", event.RequestID, err)
			return fmt.Errorf("更新每日统计失败: %w", err)
		}
	}

	log.Infof("[Processor] 用量事件处理完成, request_id: %s", event.RequestID)
	return nil
}

func toDocument(e events.UsageEvent) es.HistoryDocument {
	return es.HistoryDocument{
		RequestID:      e.RequestID,
		UserID:         e.UserID,
		Provider:       e.Provider,
		Model:          e.Model,
		RequestType:    e.RequestType,
		Status:         e.Status,
		InputText:      e.InputText,
		OutputText:     e.OutputText,
		TokensUsed:     e.TokensUsed,
		ProcessingTime: e.ProcessingTime,
		CreatedAt:      e.CreatedAt,
	}
}
