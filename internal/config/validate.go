package config

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

func validate(cfg *AppConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", cfg.Port)
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", cfg.Database.Port)
	}
	if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
		return fmt.Errorf("invalid database dsn: %w", err)
	}
	if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", cfg.Redis.Port)
	}
	if cfg.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", cfg.Redis.DB)
	}
	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
	}
	if cfg.Upload.MaxSizeMB < 1 {
		return fmt.Errorf("invalid upload.max_size_mb %d, expected >= 1", cfg.Upload.MaxSizeMB)
	}

	switch cfg.Storage.Driver {
	case StorageLocal:
	case StorageS3:
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for driver %q", StorageS3)
		}
	case StorageMinio:
		if cfg.Storage.Minio.Endpoint == "" || cfg.Storage.Minio.Bucket == "" {
			return fmt.Errorf("storage.minio.endpoint and storage.minio.bucket are required for driver %q", StorageMinio)
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", cfg.Storage.Driver)
	}

	switch cfg.Extraction.Engine {
	case ExtractionNative, ExtractionPdftotext:
	default:
		return fmt.Errorf("unknown extraction.engine %q", cfg.Extraction.Engine)
	}
	if cfg.Extraction.TimeoutSeconds < 1 {
		return fmt.Errorf("invalid extraction.timeout_seconds %d, expected >= 1", cfg.Extraction.TimeoutSeconds)
	}

	switch cfg.AI.Provider {
	case ProviderOpenAICompatible, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown ai.provider %q", cfg.AI.Provider)
	}
	if cfg.AI.ConnectTimeoutMs < 1 || cfg.AI.ReadTimeoutMs < 1 {
		return fmt.Errorf("ai timeouts must be positive, got connect=%d read=%d", cfg.AI.ConnectTimeoutMs, cfg.AI.ReadTimeoutMs)
	}
	if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2 {
		return fmt.Errorf("invalid ai.temperature %v, expected 0-2", cfg.AI.Temperature)
	}
	if cfg.AI.MaxTokens < 1 {
		return fmt.Errorf("invalid ai.max_tokens %d, expected >= 1", cfg.AI.MaxTokens)
	}

	if cfg.Chat.HistoryLimit < 0 {
		return fmt.Errorf("invalid chat.history_limit %d, expected >= 0", cfg.Chat.HistoryLimit)
	}
	if cfg.Chat.SummaryChars < 1 {
		return fmt.Errorf("invalid chat.summary_chars %d, expected >= 1", cfg.Chat.SummaryChars)
	}
	if cfg.Translation.StaleAfterMinutes < 1 {
		return fmt.Errorf("invalid translation.stale_after_minutes %d, expected >= 1", cfg.Translation.StaleAfterMinutes)
	}
	if cfg.Translation.SweepEverySeconds < 1 {
		return fmt.Errorf("invalid translation.sweep_every_seconds %d, expected >= 1", cfg.Translation.SweepEverySeconds)
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.PerSecond < 1 {
		return fmt.Errorf("invalid rate_limit.per_second %d, expected >= 1", cfg.RateLimit.PerSecond)
	}
	if cfg.Session.MaxAgeDays < 1 {
		return fmt.Errorf("invalid session.max_age_days %d, expected >= 1", cfg.Session.MaxAgeDays)
	}
	return nil
}
