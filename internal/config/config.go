package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Storage    StorageConfig    `toml:"storage"`
	PostgreSQL PostgreSQLConfig `toml:"postgresql"`
	LLM        LLMConfig        `toml:"llm"`
	Advisor    AdvisorConfig    `toml:"advisor"`
	Chat       ChatConfig       `toml:"chat"`
	Auth       AuthConfig       `toml:"auth"`
	Pinata     PinataConfig     `toml:"pinata"`
	Logging    LoggingConfig    `toml:"logging"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int    `toml:"port"`
	Host           string `toml:"host"`
	GinMode        string `toml:"gin_mode"`
	AllowedOrigins string `toml:"allowed_origins"`
}

// StorageConfig selects the property/user/nonce backend.
type StorageConfig struct {
	Driver   string `toml:"driver"` // "file" or "postgres"
	DataFile string `toml:"data_file"`
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string `toml:"dsn"` // full connection string, wins over the parts below
	Host               string `toml:"host"`
	Port               int    `toml:"port"`
	User               string `toml:"user"`
	Password           string `toml:"password"`
	Database           string `toml:"database"`
	SSLMode            string `toml:"sslmode"`
	MaxConnections     int    `toml:"max_connections"`
	MaxIdleConnections int    `toml:"max_idle_connections"`
}

// LLMConfig holds model provider configuration
type LLMConfig struct {
	Provider string       `toml:"provider"` // "gemini" or "openai"
	Gemini   GeminiConfig `toml:"gemini"`
	OpenAI   OpenAIConfig `toml:"openai"`
}

// GeminiConfig holds Google GenAI configuration
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	EmbeddingModel string  `toml:"embedding_model"`
	Temperature    float64 `toml:"temperature"`
	Enabled        bool    `toml:"-"`
}

// OpenAIConfig holds OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey          string  `toml:"api_key"`
	APIBase         string  `toml:"api_base"`
	ChatModel       string  `toml:"chat_model"`
	ChatTemperature float64 `toml:"chat_temperature"`
	ChatTopP        float64 `toml:"chat_top_p"`
	ChatMaxTokens   int     `toml:"chat_max_tokens"`
	EmbeddingModel  string  `toml:"embedding_model"`
	Timeout         int     `toml:"timeout"`
	Enabled         bool    `toml:"-"`
}

// AdvisorConfig holds advisor prompt settings
type AdvisorConfig struct {
	TopPicks int `toml:"top_picks"`
}

// ChatConfig holds chat assistant settings
type ChatConfig struct {
	HistoryWindow int `toml:"history_window"`
}

// AuthConfig holds wallet login settings
type AuthConfig struct {
	JWTSecret  string        `toml:"jwt_secret"`
	TokenTTL   time.Duration `toml:"-"`
	NonceTTL   time.Duration `toml:"-"`
	SIWEDomain string        `toml:"siwe_domain"`

	TokenTTLMinutes int `toml:"token_ttl_minutes"`
	NonceTTLMinutes int `toml:"nonce_ttl_minutes"`
}

// PinataConfig holds IPFS pinning service configuration
type PinataConfig struct {
	JWT        string `toml:"jwt"`
	APIURL     string `toml:"api_url"`
	GatewayURL string `toml:"gateway_url"`
	Timeout    int    `toml:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultJWTSecret is the development signing key shipped in Default
const DefaultJWTSecret = "DEV_SECRET_CHANGE_IN_PROD"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			GinMode:        "release",
			AllowedOrigins: "*",
		},
		Storage: StorageConfig{
			Driver:   "file",
			DataFile: "data/properties.data.json",
		},
		PostgreSQL: PostgreSQLConfig{
			Host:               "localhost",
			Port:               5432,
			User:               "postgres",
			Database:           "aira",
			SSLMode:            "disable",
			MaxConnections:     25,
			MaxIdleConnections: 5,
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Gemini: GeminiConfig{
				Model:          "gemini-2.5-flash",
				EmbeddingModel: "gemini-embedding-001",
			},
			OpenAI: OpenAIConfig{
				APIBase:         "https://api.openai.com/v1",
				ChatModel:       "gpt-4o-mini",
				ChatTemperature: 0.2,
				ChatTopP:        0.7,
				ChatMaxTokens:   2048,
				EmbeddingModel:  "text-embedding-3-small",
				Timeout:         30,
			},
		},
		Advisor: AdvisorConfig{TopPicks: 2},
		Chat:    ChatConfig{HistoryWindow: 10},
		Auth: AuthConfig{
			JWTSecret:       DefaultJWTSecret,
			TokenTTLMinutes: 60,
			NonceTTLMinutes: 10,
		},
		Pinata: PinataConfig{
			APIURL:     "https://api.pinata.cloud",
			GatewayURL: "https://gateway.pinata.cloud/ipfs",
			Timeout:    60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration: defaults, then the optional TOML file,
// then .env and environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("AIRA_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Try to load .env file (optional)
	_ = godotenv.Load()

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(c *Config) {
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.GinMode = getEnv("GIN_MODE", c.Server.GinMode)
	c.Server.AllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", c.Server.AllowedOrigins)

	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.DataFile = getEnv("DATA_FILE", c.Storage.DataFile)

	c.PostgreSQL.DSN = getEnv("DATABASE_URL", getEnv("PG_DSN", c.PostgreSQL.DSN))
	c.PostgreSQL.Host = getEnv("PG_HOST", c.PostgreSQL.Host)
	c.PostgreSQL.Port = getEnvAsInt("PG_PORT", c.PostgreSQL.Port)
	c.PostgreSQL.User = getEnv("PG_USER", c.PostgreSQL.User)
	c.PostgreSQL.Password = getEnv("PG_PASSWORD", c.PostgreSQL.Password)
	c.PostgreSQL.Database = getEnv("PG_DATABASE", c.PostgreSQL.Database)
	c.PostgreSQL.SSLMode = getEnv("PG_SSLMODE", c.PostgreSQL.SSLMode)
	c.PostgreSQL.MaxConnections = getEnvAsInt("PG_MAX_CONNECTIONS", c.PostgreSQL.MaxConnections)
	c.PostgreSQL.MaxIdleConnections = getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", c.PostgreSQL.MaxIdleConnections)

	c.LLM.Provider = getEnv("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Gemini.APIKey = getEnv("GEMINI_API_KEY", c.LLM.Gemini.APIKey)
	c.LLM.Gemini.Model = getEnv("GEMINI_MODEL", c.LLM.Gemini.Model)
	c.LLM.Gemini.EmbeddingModel = getEnv("GEMINI_EMBEDDING_MODEL", c.LLM.Gemini.EmbeddingModel)
	c.LLM.Gemini.Temperature = getEnvAsFloat("GEMINI_TEMPERATURE", c.LLM.Gemini.Temperature)
	c.LLM.Gemini.Enabled = c.LLM.Gemini.APIKey != ""

	c.LLM.OpenAI.APIKey = getEnv("OPENAI_API_KEY", c.LLM.OpenAI.APIKey)
	c.LLM.OpenAI.APIBase = getEnv("OPENAI_API_BASE", c.LLM.OpenAI.APIBase)
	c.LLM.OpenAI.ChatModel = getEnv("OPENAI_CHAT_MODEL", c.LLM.OpenAI.ChatModel)
	c.LLM.OpenAI.ChatTemperature = getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", c.LLM.OpenAI.ChatTemperature)
	c.LLM.OpenAI.ChatTopP = getEnvAsFloat("OPENAI_CHAT_TOP_P", c.LLM.OpenAI.ChatTopP)
	c.LLM.OpenAI.ChatMaxTokens = getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", c.LLM.OpenAI.ChatMaxTokens)
	c.LLM.OpenAI.EmbeddingModel = getEnv("OPENAI_EMBEDDING_MODEL", c.LLM.OpenAI.EmbeddingModel)
	c.LLM.OpenAI.Timeout = getEnvAsInt("OPENAI_TIMEOUT", c.LLM.OpenAI.Timeout)
	c.LLM.OpenAI.Enabled = c.LLM.OpenAI.APIKey != ""

	c.Advisor.TopPicks = getEnvAsInt("ADVISOR_TOP_PICKS", c.Advisor.TopPicks)
	c.Chat.HistoryWindow = getEnvAsInt("CHAT_HISTORY_WINDOW", c.Chat.HistoryWindow)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.SIWEDomain = getEnv("SIWE_DOMAIN", c.Auth.SIWEDomain)
	c.Auth.TokenTTLMinutes = getEnvAsInt("JWT_TTL_MINUTES", c.Auth.TokenTTLMinutes)
	c.Auth.NonceTTLMinutes = getEnvAsInt("NONCE_TTL_MINUTES", c.Auth.NonceTTLMinutes)
	c.Auth.TokenTTL = time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
	c.Auth.NonceTTL = time.Duration(c.Auth.NonceTTLMinutes) * time.Minute

	c.Pinata.JWT = getEnv("PINATA_JWT", c.Pinata.JWT)
	c.Pinata.APIURL = getEnv("PINATA_API_URL", c.Pinata.APIURL)
	c.Pinata.GatewayURL = getEnv("PINATA_GATEWAY_URL", c.Pinata.GatewayURL)
	c.Pinata.Timeout = getEnvAsInt("PINATA_TIMEOUT", c.Pinata.Timeout)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file", "postgres":
	default:
		return fmt.Errorf("invalid storage driver %q: must be file or postgres", c.Storage.Driver)
	}
	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("invalid llm provider %q: must be gemini or openai", c.LLM.Provider)
	}
	if c.Chat.HistoryWindow < 0 {
		return fmt.Errorf("chat history window cannot be negative")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}

// InsecureJWTSecret reports a release-mode server signing tokens with the
// public development key
func (c *Config) InsecureJWTSecret() bool {
	return c.Server.GinMode == "release" && c.Auth.JWTSecret == DefaultJWTSecret
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
