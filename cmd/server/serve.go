package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quill-ai-go/internal/config"
	"quill-ai-go/internal/handler"
	"quill-ai-go/internal/pipeline"
	"quill-ai-go/internal/prompt"
	"quill-ai-go/internal/repository"
	"quill-ai-go/internal/service"
	"quill-ai-go/pkg/database"
	"quill-ai-go/pkg/es"
	"quill-ai-go/pkg/kafka"
	"quill-ai-go/pkg/llm"
	"quill-ai-go/pkg/log"
	"quill-ai-go/pkg/storage"
	"quill-ai-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务和用量事件消费者",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(config.Conf)
		},
	}
}

// optional 汇总可选的外部组件。接口变量只在组件启用时赋值，避免出现持有 nil 指针的非 nil 接口。
type optional struct {
	searcher  service.HistorySearcher
	indexer   pipeline.HistoryIndexer
	store     service.ObjectStore
	publisher service.Publisher
	producer  *kafka.Producer
}

func initOptional(ctx context.Context, cfg config.Config) (*optional, error) {
	opt := &optional{}
	if cfg.Elasticsearch.Enabled {
		client, err := es.InitES(cfg.Elasticsearch)
		if err != nil {
			return nil, fmt.Errorf("es 初始化失败: %w", err)
		}
		opt.searcher = client
		opt.indexer = client
	}
	if cfg.MinIO.Enabled {
		store, err := storage.InitMinIO(ctx, cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("minio 初始化失败: %w", err)
		}
		opt.store = store
	}
	if cfg.Kafka.Enabled {
		opt.producer = kafka.NewProducer(cfg.Kafka)
		opt.publisher = opt.producer
	}
	return opt, nil
}

func serve(cfg config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. 初始化数据库和 Redis
	database.InitMySQL(cfg.Database.MySQL.DSN)
	defer database.Close()
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	opt, err := initOptional(ctx, cfg)
	if err != nil {
		return err
	}

	// 2. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	requestRepo := repository.NewAIRequestRepository(database.DB)
	usageRepo := repository.NewUsageRepository(database.DB, repository.QuotaDefaults{
		RequestLimit: cfg.Quota.DefaultRequestLimit,
		TokenLimit:   cfg.Quota.DefaultTokenLimit,
		Period:       cfg.Quota.Period,
	})
	blacklist := repository.NewTokenBlacklistRepository(database.RDB)
	rateLimiter := repository.NewRateLimitRepository(database.RDB)
	analyticsRepo := repository.NewAnalyticsRepository(database.RDB)

	// 3. 初始化 Provider 和提示词模板
	provider, err := llm.NewProvider(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("初始化 LLM Provider 失败: %w", err)
	}
	prompts, err := prompt.NewManager(cfg.AI.Prompts)
	if err != nil {
		return fmt.Errorf("加载提示词模板失败: %w", err)
	}
	log.Infof("LLM Provider: %s, model: %s, templates: %v", provider.Name(), provider.Model(), prompts.Names())

	// 4. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	userService := service.NewUserService(userRepo, blacklist, jwtManager)
	aiService := service.NewAIService(provider, usageRepo, requestRepo, rateLimiter, opt.publisher, service.AIOptions{
		RateLimitPerMinute: cfg.LLM.RateLimitPerMinute,
		CostPer1KTokens:    cfg.LLM.CostPer1KTokens,
		Params:             llm.ParamsFromConfig(cfg.LLM.Generation),
	})
	blogService := service.NewBlogService(aiService, prompts)
	usageService := service.NewUsageService(usageRepo, requestRepo, userRepo, analyticsRepo, opt.searcher, opt.store, cfg.Quota.Period)

	// 5. 启动后台 Kafka 消费者
	if cfg.Kafka.Enabled {
		processor := pipeline.NewProcessor(opt.indexer, analyticsRepo)
		go kafka.StartConsumer(ctx, cfg.Kafka, processor, database.RDB)
	}

	// 6. 设置 Gin 模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	r := handler.NewRouter(handler.Services{
		JWT:       jwtManager,
		Blacklist: blacklist,
		User:      userService,
		AI:        aiService,
		Blog:      blogService,
		Usage:     usageService,
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info("接收到停机信号，正在关闭服务...")
	case err := <-errCh:
		return fmt.Errorf("HTTP 服务监听失败: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP 服务器关闭失败: %w", err)
	}

	// 停止消费者，并刷新生产者中尚未发送的事件
	cancel()
	if opt.producer != nil {
		if err := opt.producer.Close(); err != nil {
			log.Warnf("关闭 Kafka 生产者失败: %v", err)
		}
	}
	log.Info("服务已优雅关闭")
	return nil
}
