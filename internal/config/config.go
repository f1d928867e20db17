package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Opt-in modes for newsletter signups.
const (
	OptInSingle = "single"
	OptInDouble = "double"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Cache holds the key-value store backing rate limits and the sitemap cache
	Cache CacheConfig

	// Site holds canonical URL and indexability settings
	Site SiteConfig

	Newsletter NewsletterConfig
	Contact    ContactConfig
	Community  CommunityConfig
	Email      EmailConfig
	Consent    ConsentConfig
	Auth       AuthConfig
	Events     EventsConfig
	Social     SocialImageConfig
	Scheduler  SchedulerConfig
	Admin      AdminConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	Env             string
	Debug           bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MigrationsPath  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// CacheConfig selects the key-value store. An empty RedisURL means in-process memory.
type CacheConfig struct {
	RedisURL string
}

// SiteConfig holds public site settings
type SiteConfig struct {
	BaseURL              string
	CanonicalHost        string
	CaseStudiesIndexable bool
	ToolsIndexable       bool
	FooterPath           string
	SitemapCacheTTL      time.Duration
}

// NewsletterConfig holds newsletter signup settings
type NewsletterConfig struct {
	OptInMode       string
	Provider        string
	IPPerHour       int
	EmailPerHour    int
	ProviderTimeout time.Duration
	Redirect        bool
}

// ContactConfig holds contact form settings
type ContactConfig struct {
	RateLimit  int
	RateWindow time.Duration
	Recipient  string
}

// CommunityConfig holds community post throttling
type CommunityConfig struct {
	PostRateLimit  int
	PostRateWindow time.Duration
}

// EmailConfig selects the outgoing mail backend
type EmailConfig struct {
	Backend      string // "file", "smtp" or "memory"
	FilePath     string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	From         string
}

// ConsentConfig holds analytics consent cookie settings
type ConsentConfig struct {
	CookieName string
	MaxAge     time.Duration
	Required   bool
	Secure     bool
}

// AuthConfig holds account token settings
type AuthConfig struct {
	SecretKey          string
	ActivationTokenTTL time.Duration
	ResetTokenTTL      time.Duration
	SessionTTL         time.Duration
}

// EventsConfig holds the content event bus settings. No brokers disables publishing.
type EventsConfig struct {
	Brokers []string
	Topic   string
}

// SocialImageConfig selects where generated social cards are written
type SocialImageConfig struct {
	Dir      string
	BaseURL  string
	S3Bucket string
	S3Prefix string
	S3Region string
}

// SchedulerConfig controls the in-process scheduled publisher. Zero disables it.
type SchedulerConfig struct {
	PublishInterval time.Duration
}

// AdminConfig guards operator endpoints
type AdminConfig struct {
	Token string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	secret := getEnv("SECRET_KEY", "")
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Env:             getEnv("ENV", "development"),
			Debug:           getBoolEnv("DEBUG", false),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "technofatty"),
			Password:     getEnv("DB_PASSWORD", ""),
			Name:         getEnv("DB_NAME", "technofatty"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
		},
		Site: SiteConfig{
			BaseURL:              strings.TrimRight(getEnv("SITE_BASE_URL", "https://technofatty.com"), "/"),
			CanonicalHost:        getEnv("CANONICAL_HOST", "technofatty.com"),
			CaseStudiesIndexable: getBoolEnv("CASE_STUDIES_INDEXABLE", false),
			ToolsIndexable:       getBoolEnv("TOOLS_INDEXABLE", false),
			FooterPath:           getEnv("FOOTER_PATH", "./content/footer.json"),
			SitemapCacheTTL:      getDurationEnv("SITEMAP_CACHE_TTL", 6*time.Hour),
		},
		Newsletter: NewsletterConfig{
			OptInMode:       strings.ToLower(getEnv("OPT_IN_MODE", OptInSingle)),
			Provider:        getEnv("NEWSLETTER_PROVIDER", "stub"),
			IPPerHour:       getIntEnv("NEWSLETTER_RATE_IP_PER_HOUR", 10),
			EmailPerHour:    getIntEnv("NEWSLETTER_RATE_EMAIL_PER_HOUR", 5),
			ProviderTimeout: getDurationEnv("NEWSLETTER_PROVIDER_TIMEOUT", 5*time.Second),
			Redirect:        getBoolEnv("NEWSLETTER_REDIRECT", true),
		},
		Contact: ContactConfig{
			RateLimit:  getIntEnv("CONTACT_RATE_LIMIT", 1),
			RateWindow: getDurationEnv("CONTACT_RATE_WINDOW", 60*time.Second),
			Recipient:  getEnv("CONTACT_RECIPIENT", "hello@technofatty.com"),
		},
		Community: CommunityConfig{
			PostRateLimit:  getIntEnv("COMMUNITY_POST_RATE_LIMIT", 5),
			PostRateWindow: getDurationEnv("COMMUNITY_POST_RATE_WINDOW", time.Hour),
		},
		Email: EmailConfig{
			Backend:      getEnv("EMAIL_BACKEND", "file"),
			FilePath:     getEnv("EMAIL_FILE_PATH", "./data/outbox"),
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("DEFAULT_FROM_EMAIL", "Technofatty <no-reply@technofatty.com>"),
		},
		Consent: ConsentConfig{
			CookieName: getEnv("CONSENT_COOKIE_NAME", "tf_consent"),
			MaxAge:     getDurationEnv("CONSENT_COOKIE_MAX_AGE", 180*24*time.Hour),
			Required:   getBoolEnv("CONSENT_REQUIRED", true),
			Secure:     getBoolEnv("CONSENT_COOKIE_SECURE", true),
		},
		Auth: AuthConfig{
			SecretKey:          secret,
			ActivationTokenTTL: getDurationEnv("ACTIVATION_TOKEN_TTL", 72*time.Hour),
			ResetTokenTTL:      getDurationEnv("RESET_TOKEN_TTL", 24*time.Hour),
			SessionTTL:         getDurationEnv("SESSION_TTL", 14*24*time.Hour),
		},
		Events: EventsConfig{
			Brokers: getListEnv("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "technofatty.content"),
		},
		Social: SocialImageConfig{
			Dir:      getEnv("SOCIAL_IMAGE_DIR", "./media/social"),
			BaseURL:  getEnv("SOCIAL_IMAGE_BASE_URL", ""),
			S3Bucket: getEnv("S3_BUCKET", ""),
			S3Prefix: getEnv("S3_PREFIX", "social/"),
			S3Region: getEnv("AWS_REGION", ""),
		},
		Scheduler: SchedulerConfig{
			PublishInterval: getDurationEnv("PUBLISH_SCHEDULE_INTERVAL", 0),
		},
		Admin: AdminConfig{
			Token: getEnv("ADMIN_TOKEN", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Social.BaseURL == "" {
		cfg.Social.BaseURL = cfg.Site.BaseURL + "/media/social/"
	}

	if cfg.Auth.SecretKey == "" && cfg.Server.Env != "production" {
		cfg.Auth.SecretKey = "dev-only-secret"
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Newsletter.OptInMode != OptInSingle && c.Newsletter.OptInMode != OptInDouble {
		return fmt.Errorf("OPT_IN_MODE must be %q or %q, got %q", OptInSingle, OptInDouble, c.Newsletter.OptInMode)
	}
	switch c.Email.Backend {
	case "file", "smtp", "memory":
	default:
		return fmt.Errorf("EMAIL_BACKEND must be file, smtp or memory, got %q", c.Email.Backend)
	}
	if c.Email.Backend == "smtp" && c.Email.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST is required when EMAIL_BACKEND=smtp")
	}
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required in production")
	}
	if c.Newsletter.IPPerHour < 1 || c.Newsletter.EmailPerHour < 1 || c.Contact.RateLimit < 1 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}

// IsProduction reports whether ENV=production
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
