package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrMissingCredential 表示未提供大模型 API 凭证，服务无法启动。
var ErrMissingCredential = errors.New("generator credential is not configured")

// Provider 标识文本生成服务提供方。
type Provider string

const (
	ProviderArk    Provider = "ark"
	ProviderOpenAI Provider = "openai"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Generator GeneratorConfig
	Log       LogConfig
	// DefaultPersona 创建会话未指定顾问时使用。
	DefaultPersona string
}

// Load 从环境变量加载配置。缺少凭证时返回包装了 ErrMissingCredential 的错误。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	generator, err := loadGeneratorConfig()
	if err != nil {
		return nil, err
	}

	if err := generator.Validate(); err != nil {
		return nil, err
	}

	return &Config{
		Server:         server,
		Generator:      generator,
		Log:            loadLogConfig(),
		DefaultPersona: getEnvOrDefault("DEFAULT_PERSONA", "ergonomic-consultant"),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig 控制 main 中构建的 zap 日志器。
type LogConfig struct {
	Level       string
	Development bool
}

func loadLogConfig() LogConfig {
	env := strings.ToLower(getEnvOrDefault("APP_ENV", "production"))
	return LogConfig{
		Level:       strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Development: env == "development" || env == "dev",
	}
}

// GeneratorConfig 描述大模型相关配置。
type GeneratorConfig struct {
	Provider Provider

	// Ark（火山引擎）凭证。
	APIKey    string
	AccessKey string
	SecretKey string
	Region    string

	Model       string
	BaseURL     string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// HasCredential 表示是否提供了所选提供方必需的密钥。
func (c GeneratorConfig) HasCredential() bool {
	switch c.Provider {
	case ProviderArk:
		return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
	default:
		return c.APIKey != ""
	}
}

// Validate 校验提供方、凭证与模型名称。
func (c GeneratorConfig) Validate() error {
	switch c.Provider {
	case ProviderArk, ProviderOpenAI:
	default:
		return fmt.Errorf("invalid GENERATOR_PROVIDER value %q", c.Provider)
	}

	if !c.HasCredential() {
		switch c.Provider {
		case ProviderArk:
			return fmt.Errorf("%w: set ARK_API_KEY or ARK_ACCESS_KEY and ARK_SECRET_KEY", ErrMissingCredential)
		default:
			return fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingCredential)
		}
	}

	if c.Model == "" {
		return fmt.Errorf("model name is required for provider %s", c.Provider)
	}
	return nil
}

func loadGeneratorConfig() (GeneratorConfig, error) {
	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return GeneratorConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("LLM_TOP_P")
	if err != nil {
		return GeneratorConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("LLM_MAX_TOKENS")
	if err != nil {
		return GeneratorConfig{}, err
	}
	if maxTokens != nil && *maxTokens < 1 {
		return GeneratorConfig{}, fmt.Errorf("invalid LLM_MAX_TOKENS value %d: must be positive", *maxTokens)
	}

	provider := Provider(strings.ToLower(getEnvOrDefault("GENERATOR_PROVIDER", string(ProviderArk))))

	cfg := GeneratorConfig{
		Provider:    provider,
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}

	switch provider {
	case ProviderArk:
		cfg.APIKey = strings.TrimSpace(os.Getenv("ARK_API_KEY"))
		cfg.AccessKey = strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY"))
		cfg.SecretKey = strings.TrimSpace(os.Getenv("ARK_SECRET_KEY"))
		cfg.Model = strings.TrimSpace(os.Getenv("ARK_MODEL"))
		cfg.BaseURL = getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
		cfg.Region = getEnvOrDefault("ARK_REGION", "cn-beijing")
	case ProviderOpenAI:
		cfg.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		cfg.Model = getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini")
		cfg.BaseURL = getEnvOrDefault("OPENAI_BASE_URL", "")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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
