package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xaenox/return-analyzer/internal/bot"
	"go.uber.org/zap"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cfg.Telegram.Token == "" {
			return errors.New("telegram token is not configured (set TELEGRAM_TOKEN)")
		}

		svc, store, err := buildService(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		b, err := bot.New(cfg.Telegram.Token, svc, logger)
		if err != nil {
			logger.Error("Failed to create bot", zap.Error(err))
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return b.Start(ctx)
	},
}
