package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/hashicorp/go-multierror"

	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server        ServerConfig
	Upstream      UpstreamConfig
	AI            AIConfig
	Speech        SpeechConfig
	Log           LogConfig
	DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"en"`
}

// Load 从环境变量加载配置。调用方负责在此之前加载 .env 文件。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	addr, err := normalizeAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	if err := cfg.AI.loadSampling(); err != nil {
		return nil, err
	}
	if cfg.AI.HistoryLimit < 1 {
		cfg.AI.HistoryLimit = 1
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := validateBaseURL(c.Upstream.BaseURL); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Upstream.MaxSongs < 1 {
		result = multierror.Append(result, fmt.Errorf("MUSIC_MAX_SONGS must be at least 1, got %d", c.Upstream.MaxSongs))
	}
	if c.Upstream.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.Upstream.Timeout))
	}
	if _, err := i18n.ParseLocale(c.DefaultLocale); err != nil {
		result = multierror.Append(result, fmt.Errorf("DEFAULT_LOCALE: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.Log.Format))
	}
	return result.ErrorOrNil()
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Addr string
}

// normalizeAddr 解析服务器监听地址。
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// UpstreamConfig 描述外部天气/音乐接口。
type UpstreamConfig struct {
	BaseURL  string        `env:"API_BASE" envDefault:"http://localhost:3001"`
	Timeout  time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`
	MaxSongs int           `env:"MUSIC_MAX_SONGS" envDefault:"5"`
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid API_BASE %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("API_BASE is missing a host: %q", raw)
	}
	return nil
}

// AIConfig 描述闲聊大模型相关配置。
type AIConfig struct {
	APIKey       string `env:"ARK_API_KEY"`
	AccessKey    string `env:"ARK_ACCESS_KEY"`
	SecretKey    string `env:"ARK_SECRET_KEY"`
	Model        string `env:"ARK_MODEL"`
	BaseURL      string `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	Region       string `env:"ARK_REGION" envDefault:"cn-beijing"`
	HistoryLimit int    `env:"AI_HISTORY_LIMIT" envDefault:"6"`
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_MODEL with ARK_API_KEY or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func (c *AIConfig) loadSampling() error {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return err
	}
	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return err
	}
	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return err
	}

	c.Temperature = temperature
	c.TopP = topP
	c.MaxTokens = maxTokens
	return nil
}

// SpeechConfig 描述语音识别配置。未提供密钥时语音输入视为不支持。
type SpeechConfig struct {
	APIKey      string `env:"SPEECH_OPENAI_API_KEY"`
	BaseURL     string `env:"SPEECH_OPENAI_BASE_URL"`
	Model       string `env:"SPEECH_MODEL" envDefault:"whisper-1"`
	MaxUploadMB int64  `env:"SPEECH_MAX_UPLOAD_MB" envDefault:"32"`
}

// Enabled reports whether a recognizer can be built.
func (c SpeechConfig) Enabled() bool {
	return c.APIKey != ""
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"console"`
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
	Compress   bool   `env:"LOG_COMPRESS" envDefault:"false"`
	Console    bool   `env:"LOG_CONSOLE" envDefault:"true"`
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
