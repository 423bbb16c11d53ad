// Command sandbox-service runs the sandbox API.
//
// The listen port comes from --port, then SANDBOX_SERVER_PORT, then the default 8080.
// The bind host is always 0.0.0.0.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/launchdarkly/sandbox-contract-tests/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "sandbox-service",
		Short:         "Mock service for tests",
		Long:          "Provide a simple backend service to run tests against.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := run(cmd.Context(), v); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "sandbox-service: %s\n", err)
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Int("port", service.DefaultPort, "port to listen on (env "+service.EnvPort+")")
	flags.String("log-level", "info", "log level: debug, info, warn, error (env "+service.EnvLogLevel+")")
	flags.String("log-format", "json", "log format: json or console (env "+service.EnvLogFormat+")")
	flags.Int("metrics-port", 0, "serve Prometheus metrics on this port, 0 to disable (env "+service.EnvMetricsPort+")")
	_ = v.BindPFlag("port", flags.Lookup("port"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log_format", flags.Lookup("log-format"))
	_ = v.BindPFlag("metrics_port", flags.Lookup("metrics-port"))

	return cmd
}

func run(ctx context.Context, v *viper.Viper) error {
	cfg, err := service.LoadConfig(v)
	if err != nil {
		return err
	}

	logger, err := service.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("Starting server", zap.String("addr", cfg.Addr()))
	return service.NewServer(cfg, logger).Start(ctx)
}
