package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teilomillet/taskgate/config"
	"github.com/teilomillet/taskgate/logging"
	"github.com/teilomillet/taskgate/server"
	"github.com/teilomillet/taskgate/server/handlers"
	"github.com/teilomillet/taskgate/server/metrics"
	"github.com/teilomillet/taskgate/server/provider"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "", "Path to an optional YAML configuration file")
	envFile    = flag.String("env-file", ".env", "Path to a dotenv file; empty disables it")
	validate   = flag.Bool("validate", false, "Validate configuration and exit")
	version    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("%s %s\n", handlers.ServiceName, handlers.ServiceVersion)
		os.Exit(0)
	}

	opts := []config.LoadOption{config.WithEnvFile(*envFile)}
	if *configFile != "" {
		opts = append(opts, config.WithFile(*configFile))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *validate {
		fmt.Println("Configuration is valid")
		os.Exit(0)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics()

	client, err := provider.NewBedrockClient(ctx, cfg.Bedrock, logger)
	if err != nil {
		return err
	}
	client.WithMetrics(m)

	handler, err := server.NewHandler(cfg, client, m, logger)
	if err != nil {
		return err
	}

	srv := server.NewServer(cfg.Server, handler, logger)

	logger.Info("Starting taskgate",
		zap.String("version", handlers.ServiceVersion),
		zap.String("address", srv.Addr()),
		zap.String("region", cfg.Bedrock.Region),
		zap.String("model", cfg.Bedrock.ModelID),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
	)

	return srv.Start(ctx)
}
