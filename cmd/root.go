package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/sfsbridge/app"
	"github.com/kilianp07/sfsbridge/config"
	"github.com/kilianp07/sfsbridge/infra/logger"
)

var (
	cfgPath string
	watch   bool
)

var rootCmd = &cobra.Command{
	Use:           "sfsbridge",
	Short:         "Filament sensor to Home Assistant MQTT bridge",
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file, empty for environment only")
	rootCmd.Flags().BoolVar(&watch, "watch", true, "reload mqtt settings when the configuration file changes")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logFile, err := logger.Setup(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	log := logger.New("main")

	var opts []app.Option
	if watch && cfgPath != "" {
		opts = append(opts, app.WithConfigWatch(cfgPath))
	}
	svc, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()
	log.Infof("starting bridge as %s", cfg.MQTT.ClientID)
	return svc.Run(ctx)
}
