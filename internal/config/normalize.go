package config

import (
	"os"
	"strings"
)

func normalize(cfg *AppConfig) {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.Timezone = strings.TrimSpace(cfg.Timezone)
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)
	cfg.Paths = normalizeRuntimePaths(cfg.Paths)
	cfg.Storage = normalizeStorageConfig(cfg.Storage)
	cfg.Extraction = normalizeExtractionConfig(cfg.Extraction)
	cfg.AI = normalizeAIConfig(cfg.AI)
	cfg.Session = normalizeSessionConfig(cfg.Session)

	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
}

func normalizeDatabaseConfig(cfg DatabaseRuntimeConfig) DatabaseRuntimeConfig {
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.User = strings.TrimSpace(cfg.User)
	cfg.Password = strings.TrimSpace(cfg.Password)
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Charset = strings.TrimSpace(cfg.Charset)
	cfg.Loc = strings.TrimSpace(cfg.Loc)

	if cfg.Host == "" {
		cfg.Host = defaultDBHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultDBPort
	}
	if cfg.User == "" {
		cfg.User = defaultDBUser
	}
	if cfg.Name == "" {
		cfg.Name = defaultDBName
	}
	if cfg.Charset == "" {
		cfg.Charset = defaultDBCharset
	}
	if cfg.Loc == "" {
		cfg.Loc = defaultDBLoc
	}
	cfg.Params = cleanParams(cfg.Params)
	return cfg
}

func normalizeRedisConfig(cfg RedisRuntimeConfig) RedisRuntimeConfig {
	cfg.URL = normalizeRedisRawURL(cfg.URL)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Password = strings.TrimSpace(cfg.Password)

	if cfg.Host == "" && cfg.URL == "" {
		cfg.Host = defaultRedisHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultRedisPort
	}
	cfg.Params = cleanParams(cfg.Params)
	return cfg
}

func normalizeRedisRawURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "redis://") || strings.HasPrefix(trimmed, "rediss://") {
		return trimmed
	}
	return "redis://" + trimmed
}

func normalizeStorageConfig(cfg StorageConfig) StorageConfig {
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	if cfg.Driver == "" {
		cfg.Driver = defaultStorageDriver
	}
	cfg.Local.Dir = strings.TrimSpace(cfg.Local.Dir)
	cfg.S3.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.S3.Endpoint), "/")
	cfg.S3.Bucket = strings.TrimSpace(cfg.S3.Bucket)
	cfg.S3.Prefix = strings.Trim(strings.TrimSpace(cfg.S3.Prefix), "/")
	cfg.Minio.Endpoint = strings.TrimSpace(cfg.Minio.Endpoint)
	cfg.Minio.Bucket = strings.TrimSpace(cfg.Minio.Bucket)
	cfg.Minio.Prefix = strings.Trim(strings.TrimSpace(cfg.Minio.Prefix), "/")
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
	return cfg
}

func normalizeExtractionConfig(cfg ExtractionConfig) ExtractionConfig {
	cfg.Engine = strings.ToLower(strings.TrimSpace(cfg.Engine))
	if cfg.Engine == "" {
		cfg.Engine = defaultExtractionEngine
	}
	cfg.PdftotextPath = strings.TrimSpace(cfg.PdftotextPath)
	if cfg.PdftotextPath == "" {
		cfg.PdftotextPath = "pdftotext"
	}
	cfg.PdfinfoPath = strings.TrimSpace(cfg.PdfinfoPath)
	if cfg.PdfinfoPath == "" {
		cfg.PdfinfoPath = "pdfinfo"
	}
	return cfg
}

func normalizeAIConfig(cfg AIConfig) AIConfig {
	cfg.Provider = normalizeProviderType(cfg.Provider)
	if cfg.Provider == "" {
		cfg.Provider = defaultAIProvider
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.Model = strings.TrimSpace(cfg.Model)
	switch cfg.Provider {
	case ProviderAnthropic:
		if cfg.Model == "" {
			cfg.Model = defaultAnthropicModel
		}
	case ProviderOpenAICompatible, ProviderOpenAI:
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultOpenAIBaseURL
		}
		if cfg.Model == "" {
			cfg.Model = defaultOpenAIModel
		}
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		cfg.APIKey = strings.TrimSpace(os.Getenv(APIKeyEnv))
	}
	return cfg
}

func normalizeProviderType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "_", "-")
	t = strings.ReplaceAll(t, " ", "")
	if t == "openaicompatible" {
		t = ProviderOpenAICompatible
	}
	return t
}

func normalizeSessionConfig(cfg SessionConfig) SessionConfig {
	cfg.CookieName = strings.TrimSpace(cfg.CookieName)
	if cfg.CookieName == "" {
		cfg.CookieName = defaultSessionCookie
	}
	cfg.Header = strings.TrimSpace(cfg.Header)
	if cfg.Header == "" {
		cfg.Header = defaultSessionHeader
	}
	return cfg
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	trimmed := strings.ToLower(strings.TrimSpace(env))
	if trimmed == "" {
		return defaultEnv
	}
	return trimmed
}

func normalizeRuntimePaths(paths RuntimePathsConfig) RuntimePathsConfig {
	paths.Logs = strings.TrimSpace(paths.Logs)
	paths.Data = strings.TrimSpace(paths.Data)
	return paths
}

// cleanParams trims keys and values and drops blank entries. The result is never nil.
func cleanParams(input map[string]string) map[string]string {
	out := make(map[string]string, len(input))
	for key, value := range input {
		if k, v := strings.TrimSpace(key), strings.TrimSpace(value); k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}
