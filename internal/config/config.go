// Package config centralizes application configuration: a YAML config file
// handled by viper, environment variables (with a .env bootstrap) and
// defaults, unmarshaled into typed structs.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      App      `mapstructure:"app"`
	Backend  Backend  `mapstructure:"backend"`
	Gemini   Gemini   `mapstructure:"gemini"`
	Content  Content  `mapstructure:"content"`
	Sources  Sources  `mapstructure:"sources"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Cache    Cache    `mapstructure:"cache"`
}

// App holds general application configuration.
type App struct {
	Debug           bool   `mapstructure:"debug"`
	LogLevel        string `mapstructure:"log_level"`
	LogFile         string `mapstructure:"log_file"`
	OutputDir       string `mapstructure:"output_dir"`
	MaxTopicsPerRun int    `mapstructure:"max_topics_per_run"`
}

// Backend holds the content-management backend endpoints and credentials.
type Backend struct {
	PostsURL      string `mapstructure:"posts_url"`
	AuthURL       string `mapstructure:"auth_url"`
	LogsURL       string `mapstructure:"logs_url"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
	Timeout       string `mapstructure:"timeout"`
	TokenFile     string `mapstructure:"token_file"`
	PostLinkBase  string `mapstructure:"post_link_base"`
}

// RequestTimeout parses the configured timeout, defaulting to 30s.
func (b Backend) RequestTimeout() time.Duration {
	if d, err := time.ParseDuration(b.Timeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// Gemini holds generative-API configuration.
type Gemini struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	Strategy    string  `mapstructure:"strategy"` // "structured" or "markers"
}

// Content holds generation output configuration.
type Content struct {
	OutputFormat    string   `mapstructure:"output_format"`
	TargetLanguages []string `mapstructure:"target_languages"`
	MaxTextLen      int      `mapstructure:"max_text_len"`
	DefaultAuthor   string   `mapstructure:"default_author"`
	DefaultStatus   string   `mapstructure:"default_status"`
}

// Sources holds configuration for all source clients.
type Sources struct {
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	Reddit         RedditConfig  `mapstructure:"reddit"`
	NewsAPI        NewsAPIConfig `mapstructure:"newsapi"`
	SerpAPI        SerpAPIConfig `mapstructure:"serpapi"`
	Scraper        ScraperConfig `mapstructure:"scraper"`
}

// RedditConfig holds Reddit public-API configuration.
type RedditConfig struct {
	UserAgent  string   `mapstructure:"user_agent"`
	Subreddits []string `mapstructure:"subreddits"`
}

// NewsAPIConfig holds NewsAPI configuration.
type NewsAPIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// SerpAPIConfig holds SerpAPI configuration.
type SerpAPIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// ScraperConfig holds the auxiliary HTML scraper configuration. An empty
// base URL disables the scraper source.
type ScraperConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// Server holds the trigger HTTP server configuration.
type Server struct {
	Host         string     `mapstructure:"host"`
	Port         int        `mapstructure:"port"`
	JWTSecret    string     `mapstructure:"jwt_secret"`
	ReadTimeout  string     `mapstructure:"read_timeout"`
	WriteTimeout string     `mapstructure:"write_timeout"`
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Database holds the automation-requests database configuration. URL wins
// when set, otherwise a DSN is assembled from the individual fields.
type Database struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the postgres connection string.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Cache holds the topic cache configuration.
type Cache struct {
	TTL string `mapstructure:"ttl"`
}

// TTLDuration parses the cache TTL, defaulting to 24h.
func (c Cache) TTLDuration() time.Duration {
	if d, err := time.ParseDuration(c.TTL); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

var globalConfig *Config

// Load loads configuration from the given file (or the default search path),
// environment variables and defaults, and caches the result globally.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".dailybrief")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the cached configuration. Used by tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// ValidateForRun checks the settings an automation run cannot work without.
// Missing keys for optional features (logs endpoint, scraper) are not errors.
func (c *Config) ValidateForRun() error {
	var missing []string
	if c.Backend.PostsURL == "" {
		missing = append(missing, "backend.posts_url (API_URL)")
	}
	if c.Backend.AuthURL == "" {
		missing = append(missing, "backend.auth_url (AUTH_URL)")
	}
	if c.Backend.AdminEmail == "" {
		missing = append(missing, "backend.admin_email (ADMIN_EMAIL)")
	}
	if c.Backend.AdminPassword == "" {
		missing = append(missing, "backend.admin_password (ADMIN_PASSWORD)")
	}
	if c.Gemini.APIKey == "" {
		missing = append(missing, "gemini.api_key (GEMINI_API_KEY)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.log_file", "output/app.log")
	viper.SetDefault("app.output_dir", "output")
	viper.SetDefault("app.max_topics_per_run", 5)

	// Backend defaults
	viper.SetDefault("backend.timeout", "30s")
	viper.SetDefault("backend.token_file", "output/token.txt")
	viper.SetDefault("backend.post_link_base", "https://dailybrief.com/post/")

	// Gemini defaults
	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("gemini.temperature", 0.7)
	viper.SetDefault("gemini.strategy", "structured")

	// Content defaults
	viper.SetDefault("content.output_format", "summary")
	viper.SetDefault("content.target_languages", []string{"PT", "EN", "ES"})
	viper.SetDefault("content.max_text_len", 30000)
	viper.SetDefault("content.default_author", "Equipe DailyBrief")
	viper.SetDefault("content.default_status", "PENDING")

	// Source defaults
	viper.SetDefault("sources.max_concurrency", 4)
	viper.SetDefault("sources.reddit.user_agent", "dailybrief-automation/1.0")
	viper.SetDefault("sources.reddit.subreddits", []string{"technology", "news", "worldnews"})

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "120s")
	viper.SetDefault("server.cors.enabled", false)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	// Cache defaults
	viper.SetDefault("cache.ttl", "24h")
}

func bindEnvironmentVariables() {
	// Gemini API key - support multiple formats
	bindEnvKeys("gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})
	bindEnvKeys("gemini.model", []string{"GEMINI_MODEL"})

	// Backend endpoints and credentials
	bindEnvKeys("backend.posts_url", []string{"API_URL"})
	bindEnvKeys("backend.auth_url", []string{"AUTH_URL"})
	bindEnvKeys("backend.logs_url", []string{"LOGS_API_URL"})
	bindEnvKeys("backend.admin_email", []string{"ADMIN_EMAIL"})
	bindEnvKeys("backend.admin_password", []string{"ADMIN_PASSWORD"})

	// Content settings
	bindEnvKeys("content.output_format", []string{"OUTPUT_FORMAT"})
	bindEnvKeys("content.max_text_len", []string{"MAX_TEXT_LEN"})
	bindEnvKeys("content.default_author", []string{"DEFAULT_AUTHOR"})
	bindEnvKeys("content.default_status", []string{"DEFAULT_STATUS"})
	bindEnvKeys("app.max_topics_per_run", []string{"MAX_TOPICS_PER_RUN", "MAX_THEMES_PER_RUN"})

	// Source API keys
	bindEnvKeys("sources.newsapi.api_key", []string{"NEWSAPI_KEY", "NEWS_API_KEY"})
	bindEnvKeys("sources.serpapi.api_key", []string{
		"SERPER_API_KEY",
		"SERPAPI_API_KEY",
		"SERPAPI_KEY",
	})
	bindEnvKeys("sources.reddit.user_agent", []string{"REDDIT_USER_AGENT"})

	// Server JWT secret (base64-encoded HS512 key shared with the backend)
	bindEnvKeys("server.jwt_secret", []string{"JWT_SECRET_KEY"})

	// Database
	bindEnvKeys("database.url", []string{"DATABASE_URL"})
	bindEnvKeys("database.host", []string{"DB_HOST"})
	bindEnvKeys("database.port", []string{"DB_PORT"})
	bindEnvKeys("database.user", []string{"DB_USER"})
	bindEnvKeys("database.password", []string{"DB_PASSWORD"})
	bindEnvKeys("database.name", []string{"DB_NAME"})
}

// bindEnvKeys binds a viper key to several accepted environment variable
// names, first one present wins.
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
	if len(envKeys) > 0 {
		_ = viper.BindEnv(viperKey, envKeys[0])
	}
}

// Convenience accessors mirroring common lookups.
func GetGeminiAPIKey() string    { return Get().Gemini.APIKey }
func GetGeminiModel() string     { return Get().Gemini.Model }
func GetOutputDirectory() string { return Get().App.OutputDir }
func IsDebugMode() bool          { return Get().App.Debug }
