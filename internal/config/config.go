package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (p OAuthProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type Config struct {
	Port       string
	DBUrl      string
	JWTSecret  string
	AppEnv     string
	AppBaseURL string
	LogLevel   string
	Location   *time.Location

	StorageDriver      string
	SupabaseURL        string
	SupabaseBucket     string
	SupabaseServiceKey string
	S3Bucket           string
	S3Region           string
	S3PublicURL        string

	RedisAddr    string
	RedisChannel string

	SESRegion string
	SESSender string

	Google OAuthProviderConfig
	Kakao  OAuthProviderConfig
	Naver  OAuthProviderConfig
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	location, err := time.LoadLocation(getEnv("APP_TIMEZONE", "Asia/Seoul"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	baseURL := strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/")

	return &Config{
		Port:       getEnv("PORT", "8080"),
		DBUrl:      getEnv("DB_URL", ""),
		JWTSecret:  jwtSecret,
		AppEnv:     normalizeEnv(getEnv("APP_ENV", "production")),
		AppBaseURL: baseURL,
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Location:   location,

		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", "supabase")),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", "avatars"),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Region:           getEnv("S3_REGION", os.Getenv("AWS_REGION")),
		S3PublicURL:        strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),

		RedisAddr:    getEnv("REDIS_ADDR", ""),
		RedisChannel: getEnv("REDIS_CHANNEL", "chat_messages"),

		SESRegion: getEnv("SES_REGION", os.Getenv("AWS_REGION")),
		SESSender: getEnv("SES_SENDER", ""),

		Google: oauthProvider("GOOGLE", baseURL),
		Kakao:  oauthProvider("KAKAO", baseURL),
		Naver:  oauthProvider("NAVER", baseURL),
	}, nil
}

func oauthProvider(prefix, baseURL string) OAuthProviderConfig {
	return OAuthProviderConfig{
		ClientID:     getEnv(prefix+"_CLIENT_ID", ""),
		ClientSecret: getEnv(prefix+"_CLIENT_SECRET", ""),
		RedirectURL:  getEnv(prefix+"_REDIRECT_URL", baseURL+"/auth/callback"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

// SecureCookies is false only for local development over plain http.
func (c *Config) SecureCookies() bool {
	if c == nil {
		return true
	}
	return !c.IsDevelopment() || getEnvBool("FORCE_SECURE_COOKIES", false)
}
