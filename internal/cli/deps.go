package cli

import (
	"errors"
	"fmt"

	"github.com/xaenox/return-analyzer/internal/analyzer"
	"github.com/xaenox/return-analyzer/internal/catalog"
	"github.com/xaenox/return-analyzer/internal/classifier"
	"github.com/xaenox/return-analyzer/internal/storage"
	"github.com/xaenox/return-analyzer/internal/textproc"
	"github.com/xaenox/return-analyzer/pkg/config"
	"go.uber.org/zap"
)

func openStorage(cfg config.DatabaseConfig, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Driver {
	case "postgres":
		logger.Info("Using PostgreSQL storage", zap.String("host", cfg.Host), zap.String("dbname", cfg.DBName))
		return storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
			SSLMode:  cfg.SSLMode,
		}, logger)
	case "sqlite":
		logger.Info("Using SQLite storage", zap.String("path", cfg.Path))
		return storage.NewSQLiteStorage(cfg.Path, logger)
	default:
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	}
}

// buildService loads the model artifacts and wires the analyzer. The
// returned storage must be closed by the caller.
func buildService(cfg *config.Config, logger *zap.Logger) (*analyzer.Service, storage.Storage, error) {
	model, err := classifier.LoadModel(cfg.Classifier.ModelPath, cfg.Classifier.VectorizerPath)
	if err != nil {
		if errors.Is(err, classifier.ErrModelNotFound) {
			logger.Error("Model files not found! Please ensure both artifact files are in the working directory.",
				zap.String("model_path", cfg.Classifier.ModelPath),
				zap.String("vectorizer_path", cfg.Classifier.VectorizerPath))
		}
		return nil, nil, fmt.Errorf("load model: %w", err)
	}
	logger.Info("Loaded classifier", zap.Strings("labels", model.Labels()))

	normalizer, err := textproc.NewEnglish()
	if err != nil {
		return nil, nil, err
	}

	store, err := openStorage(cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	svc := analyzer.New(normalizer, model, catalog.Default(), store, logger)
	if cfg.OpenAI.APIKey != "" {
		logger.Info("Review assistant enabled",
			zap.String("model", cfg.OpenAI.Model),
			zap.Float64("min_confidence", cfg.Classifier.MinConfidence))
		reviewer := classifier.NewGPTReviewer(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.BaseURL,
			cfg.OpenAI.Model,
			cfg.OpenAI.MaxTokens,
			cfg.OpenAI.Temperature,
			logger,
		)
		svc.WithReviewer(reviewer, cfg.Classifier.MinConfidence)
	}

	return svc, store, nil
}
