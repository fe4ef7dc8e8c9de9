package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/celebrity-recognition/internal/config"
	"github.com/example/celebrity-recognition/internal/logging"
	"github.com/example/celebrity-recognition/internal/rekognition"
	"github.com/example/celebrity-recognition/internal/usecase"
)

// Version is the application version.
const Version = "0.1.0"

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:     "celebrity-recognition",
	Short:   "Upload a photo and find out which celebrities are in it",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger, err = logging.NewLogger(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	// Without a subcommand the web server starts, matching `serve`.
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runServe(cmd.Context(), cfg, logger)
	},
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "optional YAML configuration file")
}

// newRecognitionUseCase builds the process-wide Rekognition client once.
func newRecognitionUseCase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*usecase.RecognitionUseCase, error) {
	client, err := rekognition.New(ctx, rekognition.Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		SessionToken:    cfg.AWS.SessionToken,
		Endpoint:        cfg.AWS.Endpoint,
	}, logger)
	if err != nil {
		return nil, err
	}
	return usecase.NewRecognitionUseCase(client, cfg.RecognitionTimeout, logger), nil
}
