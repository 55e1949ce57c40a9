package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	Timezone       string                `yaml:"timezone"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	Paths          RuntimePathsConfig    `yaml:"paths"`
	Upload         UploadConfig          `yaml:"upload"`
	Storage        StorageConfig         `yaml:"storage"`
	Extraction     ExtractionConfig      `yaml:"extraction"`
	AI             AIConfig              `yaml:"ai"`
	Chat           ChatConfig            `yaml:"chat"`
	Translation    TranslationConfig     `yaml:"translation"`
	RateLimit      RateLimitConfig       `yaml:"rate_limit"`
	Session        SessionConfig         `yaml:"session"`

	// Derived from Database and Redis after loading.
	DSN      string `yaml:"-"`
	RedisURL string `yaml:"-"`
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	TLS      bool              `yaml:"tls"`
	Params   map[string]string `yaml:"params"`
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
	Data string `yaml:"data"`
}

type UploadConfig struct {
	MaxSizeMB int `yaml:"max_size_mb"`
}

// MaxBytes is the upload limit in bytes.
func (u UploadConfig) MaxBytes() int64 {
	return int64(u.MaxSizeMB) << 20
}

type StorageConfig struct {
	Driver string             `yaml:"driver"` // local | s3 | minio
	Local  LocalStorageConfig `yaml:"local"`
	S3     S3StorageConfig    `yaml:"s3"`
	Minio  MinioStorageConfig `yaml:"minio"`
}

type LocalStorageConfig struct {
	Dir string `yaml:"dir"`
}

type S3StorageConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	Bucket       string `yaml:"bucket"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	Prefix       string `yaml:"prefix"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

type MinioStorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type ExtractionConfig struct {
	Engine         string `yaml:"engine"` // native | pdftotext
	PdftotextPath  string `yaml:"pdftotext_path"`
	PdfinfoPath    string `yaml:"pdfinfo_path"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type AIConfig struct {
	Provider         string  `yaml:"provider"` // openai-compatible | openai | anthropic
	BaseURL          string  `yaml:"base_url"`
	APIKey           string  `yaml:"api_key"`
	Model            string  `yaml:"model"`
	Temperature      float64 `yaml:"temperature"`
	MaxTokens        int     `yaml:"max_tokens"`
	ConnectTimeoutMs int     `yaml:"connect_timeout_ms"`
	ReadTimeoutMs    int     `yaml:"read_timeout_ms"`
}

func (a AIConfig) ConnectTimeout() time.Duration {
	return time.Duration(a.ConnectTimeoutMs) * time.Millisecond
}

func (a AIConfig) ReadTimeout() time.Duration {
	return time.Duration(a.ReadTimeoutMs) * time.Millisecond
}

type ChatConfig struct {
	HistoryLimit int `yaml:"history_limit"`
	SummaryChars int `yaml:"summary_chars"`
}

type TranslationConfig struct {
	StaleAfterMinutes int `yaml:"stale_after_minutes"`
	SweepEverySeconds int `yaml:"sweep_every_seconds"`
}

func (t TranslationConfig) StaleAfter() time.Duration {
	return time.Duration(t.StaleAfterMinutes) * time.Minute
}

func (t TranslationConfig) SweepInterval() time.Duration {
	return time.Duration(t.SweepEverySeconds) * time.Second
}

type RateLimitConfig struct {
	Enabled   bool `yaml:"enabled"`
	PerSecond int  `yaml:"per_second"`
}

type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
	Header     string `yaml:"header"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Secure     bool   `yaml:"secure"`
}

func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML onto the defaults, normalizes and validates the result.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	}

	normalize(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Upload:     UploadConfig{MaxSizeMB: defaultUploadMaxSizeMB},
		Storage:    StorageConfig{Driver: defaultStorageDriver},
		Extraction: ExtractionConfig{Engine: defaultExtractionEngine, TimeoutSeconds: defaultExtractTimeout},
		AI: AIConfig{
			Provider:         defaultAIProvider,
			Temperature:      defaultAITemperature,
			MaxTokens:        defaultAIMaxTokens,
			ConnectTimeoutMs: defaultAIConnectTimeout,
			ReadTimeoutMs:    defaultAIReadTimeout,
		},
		Chat: ChatConfig{
			HistoryLimit: defaultChatHistoryLimit,
			SummaryChars: defaultChatSummaryChars,
		},
		Translation: TranslationConfig{
			StaleAfterMinutes: defaultStaleAfterMinutes,
			SweepEverySeconds: defaultSweepEverySeconds,
		},
		RateLimit: RateLimitConfig{Enabled: true, PerSecond: defaultRateLimitPerSecond},
		Session: SessionConfig{
			CookieName: defaultSessionCookie,
			Header:     defaultSessionHeader,
			MaxAgeDays: defaultSessionMaxAgeDays,
		},
	}
	normalize(&cfg)
	return cfg
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

// UploadDir is where the local blob store keeps files.
func (c *AppConfig) UploadDir() string {
	if c == nil {
		return ResolveRuntimePath("", "uploads")
	}
	if dir := strings.TrimSpace(c.Storage.Local.Dir); dir != "" {
		return ResolveRuntimePath(dir, "uploads")
	}
	return filepath.Join(ResolveRuntimePath(c.Paths.Data, "data"), "uploads")
}
