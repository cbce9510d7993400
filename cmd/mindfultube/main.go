// MindfulTube Daemon - serves the agent to the page layer
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mindfultube/mindfultube/internal/api"
	"github.com/mindfultube/mindfultube/internal/app"
	"github.com/mindfultube/mindfultube/internal/config"
	"github.com/mindfultube/mindfultube/internal/logging"
	"github.com/mindfultube/mindfultube/internal/scheduler"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "mindfultube",
		Short: "MindfulTube Daemon - intent-aware search and time awareness for YouTube",
		RunE:  runDaemon,
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "config file (default <data-dir>/config.yaml)")
	rootCmd.Flags().String("data-dir", "", "data directory")
	rootCmd.Flags().String("host", "", "HTTP listen host")
	rootCmd.Flags().Int("port", 0, "HTTP server port")
	rootCmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("no-scheduler", false, "disable maintenance tasks")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if dir := config.FlagOrString(cmd, "data-dir", ""); dir != "" {
		os.Setenv(config.EnvPrefix+"_DATA_DIR", dir)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	cfg.Server.Host = config.FlagOrString(cmd, "host", cfg.Server.Host)
	cfg.Server.Port = config.FlagOrInt(cmd, "port", cfg.Server.Port)
	cfg.LogLevel = config.FlagOrString(cmd, "log-level", cfg.LogLevel)
	cfg.Features.EnableScheduler = !config.FlagOrBool(cmd, "no-scheduler", !cfg.Features.EnableScheduler)

	return cfg, cfg.Validate()
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))
	if cfg.Features.DebugMode {
		logging.SetLevel(logging.DEBUG)
	}
	log := logging.Component("daemon")
	log.Info("Starting MindfulTube daemon (data dir %s)", cfg.DataDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	log.Info("Search provider: %s", a.Provider.Name())

	// Maintenance
	var sched *scheduler.Scheduler
	if cfg.Features.EnableScheduler {
		sched = scheduler.NewScheduler(scheduler.Config{Timezone: cfg.Agents.Timezone})
		maintenance := scheduler.Maintenance{
			Preference: a.Preference,
			Usage:      a.Usage,
			Discovery:  a.Discovery,
		}
		if err := maintenance.Register(sched); err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
		log.Info("Scheduler started with %d maintenance tasks", len(sched.ListTasks()))
	}

	server := api.New(api.Config{
		Addr:           cfg.Addr(),
		Agent:          a.Agent,
		Metrics:        a.Metrics,
		Scheduler:      sched,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("API server failed")
		}
	}

	cancel()
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("Server shutdown incomplete")
	}

	a.Agent.EndSession(shutdownCtx)
	log.Info("Goodbye")
	return nil
}
