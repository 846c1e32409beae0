/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/valpere/bookflow/internal/config"
	"github.com/valpere/bookflow/internal/logger"
)

var version = "0.1.0"

var (
	cfgFile string

	v      = viper.New()
	appCfg *config.Config
	log    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "bookflow",
	Short: "Fetch, rewrite and publish book chapters",
	Long: `A CLI application that fetches a chapter from a web page, rewrites it with
an AI writer, editor and reviewer, and keeps the final versions in a
per-owner library.

Completion providers: ollama, openai, openrouter, gemini, vertex
Storage backends:     sqlite, redis, firestore

Settings come from ./bookflow.yaml (or --config), BOOKFLOW_* environment
variables and a .env file. Use "bookflow serve" to run the HTTP API.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, cfgFile, ".env")
		if err != nil {
			return err
		}
		appCfg = cfg

		l, err := logger.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./bookflow.yaml if present)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("provider", "ollama", "Completion provider: ollama, openai, openrouter, gemini, vertex")
	flags.String("model", "", "Completion model (provider default if empty)")
	flags.String("store", "sqlite", "Storage backend: sqlite, redis, firestore")
	flags.String("db", "bookflow.db", "SQLite database path")

	for key, flag := range map[string]string{
		"log.level":           "log-level",
		"completion.provider": "provider",
		"completion.model":    "model",
		"store.backend":       "store",
		"store.sqlite.path":   "db",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
}
