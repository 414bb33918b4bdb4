package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/m-troja/taskstorm/internal/auth"
	"github.com/m-troja/taskstorm/internal/config"
	"github.com/m-troja/taskstorm/internal/db"
	"github.com/m-troja/taskstorm/internal/httpapi"
	"github.com/m-troja/taskstorm/internal/notify"
	"github.com/m-troja/taskstorm/internal/storage"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the TaskStorm API server",
		Long:  "Migrates the schema, seeds the reserved rows, starts the scheduled refresh-token purge, and serves the REST API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskstorm.yaml", "path to config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
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

	store, err := storage.New(storage.StoreOpts{
		Dir:          cfg.Uploads.Dir,
		MaxSizeBytes: cfg.Uploads.MaxSizeBytes,
	})
	if err != nil {
		return err
	}

	webhook, err := notify.NewWebhook(notify.WebhookOpts{BaseURL: cfg.ChatBaseURL()})
	if err != nil {
		return err
	}
	notifier := notify.Fanout{webhook}
	if cfg.Chat.SlackBotToken != "" && cfg.Chat.SlackChannel != "" {
		direct, err := notify.NewSlack(notify.SlackOpts{
			BotToken:  cfg.Chat.SlackBotToken,
			ChannelID: cfg.Chat.SlackChannel,
		})
		if err != nil {
			return err
		}
		notifier = append(notifier, direct)
	}

	directory, err := notify.NewDirectoryClient(cfg.ChatBaseURL())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.PurgeSchedule, func() {
		purged, err := auth.PurgeDeadTokens(gdb)
		if err != nil {
			log.Printf("serve: token purge: %v", err)
			return
		}
		log.Printf("serve: purged %d dead refresh tokens", purged)
	}); err != nil {
		return fmt.Errorf("serve: schedule token purge: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	return httpapi.Start(ctx, httpapi.StartOpts{
		DB:        gdb,
		Config:    cfg,
		Notifier:  notifier,
		Store:     store,
		Directory: directory,
		Out:       cmd.OutOrStdout(),
	})
}
