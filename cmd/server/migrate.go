package main

import (
	"github.com/spf13/cobra"

	"e-hrm/backend/internal/model"
	"e-hrm/backend/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移后退出",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.Close()

		return database.RunMigrations(rt.db, rt.cfg.Database.Driver, rt.logger, model.All()...)
	},
}
