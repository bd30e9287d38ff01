package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Extraction strategies.
const (
	StrategyPattern = "pattern"
	StrategyModel   = "model"
)

// Completion backend providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Ingestion providers.
const (
	PDFProviderLocal   = "local"
	PDFProviderMistral = "mistral"
	OCRProviderMistral = "mistral"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Upload    UploadConfig    `yaml:"upload" mapstructure:"upload"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Backend   BackendConfig   `yaml:"backend" mapstructure:"backend"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port             int      `yaml:"port" mapstructure:"port"`
	ReadTimeoutSecs  int      `yaml:"read_timeout_secs" mapstructure:"read_timeout_secs"`
	WriteTimeoutSecs int      `yaml:"write_timeout_secs" mapstructure:"write_timeout_secs"`
	CORSOrigins      []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// UploadConfig bounds what a single claim submission may contain.
type UploadConfig struct {
	MaxFiles  int `yaml:"max_files" mapstructure:"max_files"`
	MaxFileMB int `yaml:"max_file_mb" mapstructure:"max_file_mb"`
	// AllowImages accepts image uploads alongside PDFs. False is the
	// PDF-only deployment.
	AllowImages bool `yaml:"allow_images" mapstructure:"allow_images"`
}

// IngestConfig selects how raw text is pulled out of uploaded files.
type IngestConfig struct {
	PDFProvider   string `yaml:"pdf_provider" mapstructure:"pdf_provider"` // "local" or "mistral"
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	OCRProvider   string `yaml:"ocr_provider" mapstructure:"ocr_provider"` // "" or "mistral"
	MistralAPIKey string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
	MistralURL    string `yaml:"mistral_url" mapstructure:"mistral_url"`
}

// PipelineConfig configures claim processing.
type PipelineConfig struct {
	Strategy    string `yaml:"strategy" mapstructure:"strategy"` // "pattern" or "model"
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// BackendConfig bounds calls to the completion backend used by the model
// strategy.
type BackendConfig struct {
	Provider            string  `yaml:"provider" mapstructure:"provider"` // "anthropic" or "openai"
	TimeoutSecs         int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries             int     `yaml:"retries" mapstructure:"retries"`
	RequestsPerSecond   float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	CacheTTLMins        int     `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	MaxTokens           int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	BreakerThreshold    int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int     `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// AnthropicConfig configures the Anthropic backend.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OpenAIConfig configures an OpenAI-compatible backend (OpenAI, xAI).
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CLAIMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout_secs", 30)
	v.SetDefault("server.write_timeout_secs", 120)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("upload.max_files", 10)
	v.SetDefault("upload.max_file_mb", 20)
	v.SetDefault("upload.allow_images", true)
	v.SetDefault("ingest.pdf_provider", PDFProviderLocal)
	v.SetDefault("ingest.pdftotext_path", "pdftotext")
	v.SetDefault("ingest.ocr_provider", "")
	v.SetDefault("ingest.mistral_api_key", "")
	v.SetDefault("ingest.mistral_model", "mistral-ocr-latest")
	v.SetDefault("ingest.mistral_url", "https://api.mistral.ai")
	v.SetDefault("pipeline.strategy", StrategyPattern)
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("backend.provider", ProviderAnthropic)
	v.SetDefault("backend.timeout_secs", 30)
	v.SetDefault("backend.retries", 1)
	v.SetDefault("backend.requests_per_second", 5)
	v.SetDefault("backend.cache_ttl_mins", 30)
	v.SetDefault("backend.max_tokens", 1024)
	v.SetDefault("backend.breaker_threshold", 5)
	v.SetDefault("backend.breaker_cooldown_secs", 30)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the given mode ("serve" or
// "process"). Every problem is reported at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Upload.MaxFiles < 1 {
			errs = append(errs, "upload.max_files must be >= 1")
		}
		if c.Upload.MaxFileMB < 1 {
			errs = append(errs, "upload.max_file_mb must be >= 1")
		}
	case "process":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Pipeline.Concurrency < 1 || c.Pipeline.Concurrency > 64 {
		errs = append(errs, "pipeline.concurrency must be between 1 and 64")
	}

	switch c.Ingest.PDFProvider {
	case PDFProviderLocal, PDFProviderMistral:
	default:
		errs = append(errs, fmt.Sprintf("ingest.pdf_provider %q is not supported", c.Ingest.PDFProvider))
	}
	switch c.Ingest.OCRProvider {
	case "", OCRProviderMistral:
	default:
		errs = append(errs, fmt.Sprintf("ingest.ocr_provider %q is not supported", c.Ingest.OCRProvider))
	}
	if (c.Ingest.PDFProvider == PDFProviderMistral || c.Ingest.OCRProvider == OCRProviderMistral) && c.Ingest.MistralAPIKey == "" {
		errs = append(errs, "ingest.mistral_api_key is required for mistral ingestion")
	}

	switch c.Pipeline.Strategy {
	case StrategyPattern:
	case StrategyModel:
		errs = append(errs, c.validateBackend()...)
	default:
		errs = append(errs, fmt.Sprintf("pipeline.strategy %q is not supported", c.Pipeline.Strategy))
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateBackend() []string {
	var errs []string
	switch c.Backend.Provider {
	case ProviderAnthropic:
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	case ProviderOpenAI:
		if c.OpenAI.Key == "" {
			errs = append(errs, "openai.key is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("backend.provider %q is not supported", c.Backend.Provider))
	}
	if c.Backend.Retries < 0 {
		errs = append(errs, "backend.retries must be >= 0")
	}
	if c.Backend.TimeoutSecs < 1 {
		errs = append(errs, "backend.timeout_secs must be >= 1")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
