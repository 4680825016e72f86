package config

import (
	"strings"
	"time"
)

// Values holds every raw setting read from the environment.
type Values struct {
	Env      string `env:"OKAN_ENV" envDefault:"DEV"`
	AppName  string `env:"OKAN_APP_NAME" envDefault:"OkanAssist"`
	LogLevel string `env:"OKAN_LOG_LEVEL" envDefault:"info"`

	APIBaseURL string        `env:"OKAN_API_URL" envDefault:"http://localhost:8000/api"`
	APITimeout time.Duration `env:"OKAN_API_TIMEOUT" envDefault:"10s"`

	StoreDriver   string `env:"OKAN_STORE" envDefault:"sqlite"`
	StorePath     string `env:"OKAN_STORE_PATH" envDefault:"./data/credentials.db"`
	RedisAddr     string `env:"OKAN_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"OKAN_REDIS_PASSWORD"`
	RedisDB       int    `env:"OKAN_REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"OKAN_REDIS_PREFIX" envDefault:"okanassist"`

	GoogleClientID      string   `env:"OKAN_GOOGLE_CLIENT_ID"`
	GoogleClientSecret  string   `env:"OKAN_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL   string   `env:"OKAN_GOOGLE_REDIRECT_URL" envDefault:"http://127.0.0.1:8765/callback"`
	GoogleIssuer        string   `env:"OKAN_GOOGLE_ISSUER" envDefault:"https://accounts.google.com"`
	GoogleScopes        []string `env:"OKAN_GOOGLE_SCOPES" envSeparator:"," envDefault:"openid,profile,email"`
	GoogleVerifyIDToken bool     `env:"OKAN_GOOGLE_VERIFY_ID_TOKEN" envDefault:"false"`

	Port                string        `env:"PORT" envDefault:"8000"`
	APIPrefix           string        `env:"OKAN_API_PREFIX" envDefault:"/api"`
	TokenSecret         string        `env:"OKAN_TOKEN_SECRET" envDefault:"dev-only-token-secret-change-me-please"`
	AccessTokenTTL      time.Duration `env:"OKAN_ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL     time.Duration `env:"OKAN_REFRESH_TOKEN_TTL" envDefault:"720h"`
	RequireVerification bool          `env:"OKAN_REQUIRE_VERIFICATION" envDefault:"false"`

	AllowedOriginList []string `env:"OKAN_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

type EnvConfig interface {
	GetEnv() string
	GetAppName() string
	GetLogLevel() string
}

var _ EnvConfig = Values{}

func (v Values) GetEnv() string {
	return strings.ToUpper(v.Env)
}

func (v Values) GetAppName() string {
	return v.AppName
}

func (v Values) GetLogLevel() string {
	return v.LogLevel
}
