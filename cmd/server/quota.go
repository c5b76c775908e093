package main

import (
	"fmt"
	"strconv"
	"time"

	"quill-ai-go/internal/config"
	"quill-ai-go/internal/repository"
	"quill-ai-go/internal/service"
	"quill-ai-go/pkg/database"

	"github.com/spf13/cobra"
)

func newQuotaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quota",
		Short: "配额维护命令",
	}
	cmd.AddCommand(newQuotaResetCmd(), newQuotaSetLimitCmd())
	return cmd
}

// usageServiceFromConfig 只依赖 MySQL，供命令行子命令使用。
func usageServiceFromConfig(cfg config.Config) service.UsageService {
	database.InitMySQL(cfg.Database.MySQL.DSN)
	usageRepo := repository.NewUsageRepository(database.DB, repository.QuotaDefaults{
		RequestLimit: cfg.Quota.DefaultRequestLimit,
		TokenLimit:   cfg.Quota.DefaultTokenLimit,
		Period:       cfg.Quota.Period,
	})
	return service.NewUsageService(
		usageRepo,
		repository.NewAIRequestRepository(database.DB),
		repository.NewUserRepository(database.DB),
		nil, nil, nil,
		cfg.Quota.Period,
	)
}

// newQuotaResetCmd 在周期边界由外部调度（cron）执行。
func newQuotaResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "把周期起点早于当前周期的配额清零",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := usageServiceFromConfig(config.Conf)
			defer database.Close()
			n, err := svc.ResetPeriod(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset %d quota rows\n", n)
			return nil
		},
	}
}

func newQuotaSetLimitCmd() *cobra.Command {
	var requestLimit, tokenLimit int
	cmd := &cobra.Command{
		Use:   "set-limit <userId>",
		Short: "设置用户的周期配额上限",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("无效的用户 ID %q: %w", args[0], err)
			}
			svc := usageServiceFromConfig(config.Conf)
			defer database.Close()

			q, err := svc.UpdateLimits(cmd.Context(), uint(userID), requestLimit, tokenLimit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d: request_limit=%d token_limit=%d\n", q.UserID, q.RequestLimit, q.TokenLimit)
			return nil
		},
	}
	cmd.Flags().IntVar(&requestLimit, "requests", 0, "每个周期允许的请求次数")
	cmd.Flags().IntVar(&tokenLimit, "tokens", 0, "每个周期允许的 token 数，0 表示不限制")
	_ = cmd.MarkFlagRequired("requests")
	return cmd
}
