package main

import (
	"fmt"
	"log"

	"GanttGen/internal/di"
	"GanttGen/pkg/config"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithEnv(configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}

			log.Printf("env=%s session_backend=%s llm_transport=%s",
				cfg.Environment, cfg.Session.Backend, cfg.LLM.Transport)

			// Wire DI: Initialize all dependencies
			app, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}

			if cfg.Events.Enabled {
				log.Printf("kafka: brokers=%v topic=%s", cfg.Events.Brokers, cfg.Events.Topic)
			}

			// Run application (blocks until signal)
			return app.Run()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
	return cmd
}
