package main

import (
	"fmt"

	"quill-ai-go/internal/config"
	"quill-ai-go/internal/model"
	"quill-ai-go/pkg/database"
	"quill-ai-go/pkg/log"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "创建或更新数据库表结构",
		RunE: func(cmd *cobra.Command, args []string) error {
			database.InitMySQL(config.Conf.Database.MySQL.DSN)
			defer database.Close()
			if err := database.DB.AutoMigrate(model.AllModels()...); err != nil {
				return fmt.Errorf("数据库迁移失败: %w", err)
			}
			log.Info("数据库迁移完成")
			return nil
		},
	}
}
