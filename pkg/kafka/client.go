// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quill-ai-go/internal/config"
	"quill-ai-go/pkg/events"
	"quill-ai-go/pkg/log"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
)

// maxAttempts 是同一条消息处理失败后允许的最大次数，达到后提交 offset 放弃重试。
const maxAttempts = 3

// UsageProcessor 处理一条用量事件，使消费者与具体的处理流程解耦。
type UsageProcessor interface {
	Process(ctx context.Context, event events.UsageEvent) error
}

// Producer 发布用量事件。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。写入是异步的，失败只记录日志，不阻塞请求。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Errorf("发送用量事件到 Kafka 失败, count: %d, error: %v", len(messages), err)
			}
		},
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: w}
}

// Publish 发送一个用量事件，以 request_id 作为消息 key。
func (p *Producer) Publish(ctx context.Context, event events.UsageEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化用量事件失败: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RequestID),
		Value: body,
	})
}

// Close 刷新缓冲并关闭生产者。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// StartConsumer 启动一个 Kafka 消费者来处理用量事件，直到 ctx 被取消。
// 失败次数记录在 Redis 中，未达到 maxAttempts 时不提交 offset，让 Kafka 重新投递。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor UsageProcessor, rdb *redis.Client) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Error("从 Kafka 读取消息失败", err)
			}
			break
		}

		var event events.UsageEvent
		if err := json.Unmarshal(m.Value, &event); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			commit(ctx, r, m)
			continue
		}

		if err := processor.Process(ctx, event); err != nil {
			log.Errorf("处理用量事件失败: request_id=%s, error: %v", event.RequestID, err)
			attempts, incErr := countAttempt(ctx, rdb, event.RequestID)
			if incErr != nil {
				// Redis 异常时不提交 offset，让 Kafka 重试
				continue
			}
			if giveUp(attempts) {
				log.Errorf("用量事件多次处理失败(>=%d)，提交 offset 终止重试: request_id=%s", maxAttempts, event.RequestID)
				commit(ctx, r, m)
			}
			continue
		}

		_ = rdb.Del(ctx, attemptsKey(event.RequestID)).Err()
		commit(ctx, r, m)
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}

func attemptsKey(requestID string) string {
	return fmt.Sprintf("kafka:attempts:%s", requestID)
}

func countAttempt(ctx context.Context, rdb *redis.Client, requestID string) (int64, error) {
	key := attemptsKey(requestID)
	attempts, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = rdb.Expire(ctx, key, 24*time.Hour).Err()
	return attempts, nil
}

func giveUp(attempts int64) bool {
	return attempts >= maxAttempts
}

func commit(ctx context.Context, r *kafka.Reader, m kafka.Message) {
	if err := r.CommitMessages(ctx, m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}
