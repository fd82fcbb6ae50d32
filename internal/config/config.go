package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Provider names accepted by AI_PROVIDER.
const (
	ProviderNone     = ""
	ProviderArk      = "ark"
	ProviderOpenAI   = "openai"
	ProviderFunction = "function"
)

// Config aggregates the settings of the whole service.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	AI        AIConfig
	Assistant AssistantConfig
}

// LoadDotEnv loads the given .env files (default ".env") into the process
// environment. A missing file is reported but not fatal to callers.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		return errors.Wrap(err, "failed to load .env file")
	}
	return nil
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Log:       loadLogConfig(),
		AI:        ai,
		Assistant: loadAssistantConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// accept ":8080" or "127.0.0.1:8080" as-is
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, errors.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig controls the zerolog setup.
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "pretty"),
	}
}

// AssistantConfig overrides fields of the seeded assistant profile.
type AssistantConfig struct {
	Name      string
	Role      string
	Directive string
}

func loadAssistantConfig() AssistantConfig {
	return AssistantConfig{
		Name:      strings.TrimSpace(os.Getenv("ASSISTANT_NAME")),
		Role:      strings.TrimSpace(os.Getenv("ASSISTANT_ROLE")),
		Directive: strings.TrimSpace(os.Getenv("ASSISTANT_DIRECTIVE")),
	}
}

// AIConfig selects and configures the remote inference provider.
type AIConfig struct {
	Provider string
	Timeout  time.Duration
	Ark      ArkConfig
	OpenAI   OpenAIConfig
	Function FunctionConfig
}

// ArkConfig describes the Volcengine Ark chat model.
type ArkConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// OpenAIConfig describes an OpenAI compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// FunctionConfig describes a serverless {message, context} -> {response} endpoint.
type FunctionConfig struct {
	URL   string
	Token string
}

// Enabled reports whether the required Ark credentials are present.
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates an Ark chat model from the configuration.
func (c ArkConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, errors.New("ark credentials or model missing: provide ARK_API_KEY + Model or an AK/SK pair")
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

// ResolveProvider returns the configured provider, inferring it from the available
// credentials when AI_PROVIDER is unset.
func (c AIConfig) ResolveProvider() string {
	if c.Provider != ProviderNone {
		return c.Provider
	}
	switch {
	case c.Function.URL != "":
		return ProviderFunction
	case c.Ark.Enabled():
		return ProviderArk
	case c.OpenAI.APIKey != "":
		return ProviderOpenAI
	default:
		return ProviderNone
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("AI_PROVIDER")))
	switch provider {
	case ProviderNone, ProviderArk, ProviderOpenAI, ProviderFunction:
	default:
		return AIConfig{}, errors.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	timeout, err := parseOptionalIntEnv("AI_TIMEOUT")
	if err != nil {
		return AIConfig{}, err
	}
	timeoutSeconds := 60
	if timeout != nil {
		timeoutSeconds = *timeout
	}

	ark, err := loadArkConfig()
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		Provider: provider,
		Timeout:  time.Duration(timeoutSeconds) * time.Second,
		Ark:      ark,
		OpenAI: OpenAIConfig{
			APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			BaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
			Model:   strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
		},
		Function: FunctionConfig{
			URL:   strings.TrimSpace(os.Getenv("FUNCTION_URL")),
			Token: strings.TrimSpace(os.Getenv("FUNCTION_TOKEN")),
		},
	}, nil
}

func loadArkConfig() (ArkConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return ArkConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return ArkConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return ArkConfig{}, err
	}

	return ArkConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
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
		return nil, errors.Wrapf(err, "invalid %s value %q", key, value)
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
		return nil, errors.Wrapf(err, "invalid %s value %q", key, value)
	}
	return &val, nil
}
