package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 2333
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "doc_agent"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0

	defaultUploadMaxSizeMB  = 50
	defaultStorageDriver    = StorageLocal
	defaultExtractionEngine = ExtractionNative
	defaultExtractTimeout   = 60

	defaultAIProvider       = ProviderOpenAICompatible
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultOpenAIModel      = "gpt-4o-mini"
	defaultAnthropicModel   = "claude-haiku-4-5-20251001"
	defaultAITemperature    = 0.7
	defaultAIConnectTimeout = 60000
	defaultAIReadTimeout    = 60000
	defaultAIMaxTokens      = 4096

	defaultChatHistoryLimit = 10
	defaultChatSummaryChars = 2000

	defaultStaleAfterMinutes = 30
	defaultSweepEverySeconds = 300

	defaultRateLimitPerSecond = 10
	defaultSessionCookie      = "docagent_sid"
	defaultSessionHeader      = "X-Session-Id"
	defaultSessionMaxAgeDays  = 30

	// APIKeyEnv overrides ai.api_key when the file leaves it empty.
	APIKeyEnv = "DOCAGENT_AI_API_KEY"
)

// Storage drivers.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
	StorageMinio = "minio"
)

// Extraction engines.
const (
	ExtractionNative    = "native"
	ExtractionPdftotext = "pdftotext"
)

// AI providers.
const (
	ProviderOpenAICompatible = "openai-compatible"
	ProviderOpenAI           = "openai"
	ProviderAnthropic        = "anthropic"
)
