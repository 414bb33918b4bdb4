package main

import (
	"fmt"

	"github.com/m-troja/taskstorm/internal/config"
	"github.com/m-troja/taskstorm/internal/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database schema and seed reserved rows",
		Long:  "Runs the schema migration and the idempotent seed: roles, the system user, and the dummy project. Safe to run multiple times.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			gdb, err := db.Connect(cfg.Database)
			if err != nil {
				return err
			}
			if err := db.AutoMigrate(gdb); err != nil {
				return err
			}
			if err := db.Seed(gdb); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migration and seed complete")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskstorm.yaml", "path to config file")
	return cmd
}
