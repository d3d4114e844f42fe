package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Warehouse  WarehouseConfig  `yaml:"warehouse" mapstructure:"warehouse"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	ObjStore   ObjStoreConfig   `yaml:"objstore" mapstructure:"objstore"`
	DataRoom   DataRoomConfig   `yaml:"dataroom" mapstructure:"dataroom"`
	Extract    ExtractConfig    `yaml:"extract" mapstructure:"extract"`
	OCR        OCRConfig        `yaml:"ocr" mapstructure:"ocr"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// WarehouseConfig configures the analysis warehouse backend.
type WarehouseConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Dataset     string `yaml:"dataset" mapstructure:"dataset"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
	MaxTokens   int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	Disabled    bool   `yaml:"disabled" mapstructure:"disabled"`
}

// PerplexityConfig holds Perplexity API settings for market sizing lookups.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// NotionConfig holds Notion API credentials and the deal-tracker database ID.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	DealDB string `yaml:"deal_db" mapstructure:"deal_db"`
}

// ObjStoreConfig configures the blob staging service used by the
// rasterize-and-OCR extraction strategy.
type ObjStoreConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Key     string `yaml:"key" mapstructure:"key"`
	Bucket  string `yaml:"bucket" mapstructure:"bucket"`
}

// DataRoomConfig configures the FTP data room used for pulling deal documents.
type DataRoomConfig struct {
	URL      string `yaml:"url" mapstructure:"url"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
}

// ExtractConfig configures the document extraction chain.
type ExtractConfig struct {
	MinWordCount    int   `yaml:"min_word_count" mapstructure:"min_word_count"`
	RecompressBytes int64 `yaml:"recompress_bytes" mapstructure:"recompress_bytes"`
	StrategyTimeout int   `yaml:"strategy_timeout_secs" mapstructure:"strategy_timeout_secs"`
}

// OCRConfig configures OCR providers used by the extraction chain.
type OCRConfig struct {
	Provider      string  `yaml:"provider" mapstructure:"provider"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	Key           string  `yaml:"key" mapstructure:"key"`
	PollSecs      int     `yaml:"poll_secs" mapstructure:"poll_secs"`
	PollTimeout   int     `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	PdfToTextPath string  `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	PdfToPpmPath  string  `yaml:"pdftoppm_path" mapstructure:"pdftoppm_path"`
}

// BatchConfig configures batch analysis.
type BatchConfig struct {
	MaxConcurrentDecks int `yaml:"max_concurrent_decks" mapstructure:"max_concurrent_decks"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("DILIGENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("warehouse.driver", "postgres")
	v.SetDefault("warehouse.dataset", "diligence")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_decks", 4)
	v.SetDefault("extract.min_word_count", 50)
	v.SetDefault("extract.recompress_bytes", 5*1024*1024)
	v.SetDefault("extract.strategy_timeout_secs", 120)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.poll_secs", 3)
	v.SetDefault("ocr.poll_timeout_secs", 300)
	v.SetDefault("ocr.rate_per_second", 2)
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.pdftoppm_path", "pdftoppm")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)

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
