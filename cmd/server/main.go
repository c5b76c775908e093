// Package main 是应用程序的入口点。
package main

import (
	"fmt"
	"os"

	"quill-ai-go/internal/config"
	"quill-ai-go/pkg/log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quill-ai",
		Short:         "AI writing assistant service for the blog CMS",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env 是可选的，不存在时忽略
			_ = godotenv.Load()

			// 1. 初始化配置
			config.Init(configPath)
			cfg := config.Conf

			// 2. 初始化日志记录器
			log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "配置文件路径")
	root.AddCommand(newServeCmd(), newMigrateCmd(), newQuotaCmd())
	return root
}
