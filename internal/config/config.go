// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hitoshi/cardoctor/internal/policy"
	"github.com/joho/godotenv"
)

// DotEnvFile は起動時に読み込む.envファイルのパス。
// ファイルが存在しない場合は無視する。既に設定済みの環境変数は上書きしない。
const DotEnvFile = ".env"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL  string `env:"DATABASE_URL,required,notEmpty"`
	DatabaseName string `env:"DATABASE_NAME" envDefault:"cardoctor"`

	// Token
	AccessTokenSecret string        `env:"ACCESS_SECRET_TOKEN,required,notEmpty"`
	TokenTTL          time.Duration `env:"TOKEN_TTL" envDefault:"1h"`

	// Server
	ServerPort string `env:"PORT" envDefault:"3000"`

	// Cookie
	CookieSecure   bool   `env:"COOKIE_SECURE" envDefault:"false"`
	CookieDomain   string `env:"COOKIE_DOMAIN"`
	CookieSameSite string `env:"COOKIE_SAME_SITE" envDefault:"lax"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// CSRF
	CSRFEnabled bool `env:"CSRF_ENABLED" envDefault:"false"`

	// Orders
	OrderFilterMode policy.FilterMode `env:"ORDER_FILTER_MODE" envDefault:"require"`

	// Cache
	RedisURL        string        `env:"REDIS_URL"`
	ServiceCacheTTL time.Duration `env:"SERVICE_CACHE_TTL" envDefault:"5m"`

	// Logging
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Load は.envファイルと環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if _, err := parseSameSite(c.CookieSameSite); err != nil {
		return err
	}
	if len(c.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS must not be empty")
	}
	for _, origin := range c.CORSAllowedOrigins {
		if origin == "*" {
			// credentials付きリクエストとワイルドカードは共存できない
			return fmt.Errorf("CORS_ALLOWED_ORIGINS must not contain a wildcard")
		}
	}
	return nil
}

// SameSite はCookieのSameSite属性を返す。
func (c *Config) SameSite() http.SameSite {
	s, _ := parseSameSite(c.CookieSameSite)
	return s
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(v) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid COOKIE_SAME_SITE: %q (valid options: lax, strict, none)", v)
	}
}
