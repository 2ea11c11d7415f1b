package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName      string `env:"AUTH_APP_NAME" envDefault:"auth-lab"`
	AppEnv       string `env:"AUTH_APP_ENV" envDefault:"local"`
	HTTPHost     string `env:"AUTH_HTTP_HOST" envDefault:"0.0.0.0"`
	HTTPPort     string `env:"AUTH_HTTP_PORT" envDefault:"8081"`
	HTTPBasePath string `env:"AUTH_HTTP_BASE_PATH" envDefault:"/api/v1"`

	DBHost     string `env:"AUTH_DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"AUTH_DB_PORT" envDefault:"5432"`
	DBUser     string `env:"AUTH_DB_USER" envDefault:"app"`
	DBPassword string `env:"AUTH_DB_PASSWORD" envDefault:"app_password"`
	DBName     string `env:"AUTH_DB_NAME" envDefault:"authdb"`
	DBSSLMode  string `env:"AUTH_DB_SSLMODE" envDefault:"disable"`

	RedisAddr     string `env:"AUTH_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"AUTH_REDIS_PASSWORD"`
	RedisDB       int    `env:"AUTH_REDIS_DB" envDefault:"0"`

	SessionTTL        time.Duration `env:"AUTH_SESSION_TTL" envDefault:"1h"`
	SessionCookieName string        `env:"AUTH_SESSION_COOKIE" envDefault:"sid"`
	CookieSecure      bool          `env:"AUTH_COOKIE_SECURE" envDefault:"false"`

	Argon2Time    uint32 `env:"AUTH_ARGON2_TIME" envDefault:"1"`
	Argon2Memory  uint32 `env:"AUTH_ARGON2_MEMORY_KB" envDefault:"65536"`
	Argon2Threads uint8  `env:"AUTH_ARGON2_THREADS" envDefault:"4"`
	Argon2KeyLen  uint32 `env:"AUTH_ARGON2_KEY_LEN" envDefault:"32"`
	Argon2SaltLen uint32 `env:"AUTH_ARGON2_SALT_LEN" envDefault:"16"`

	OAuthProvider     string   `env:"AUTH_OAUTH_PROVIDER" envDefault:"google"`
	OAuthClientID     string   `env:"AUTH_OAUTH_CLIENT_ID"`
	OAuthClientSecret string   `env:"AUTH_OAUTH_CLIENT_SECRET"`
	OAuthAuthURL      string   `env:"AUTH_OAUTH_AUTH_URL" envDefault:"https://accounts.google.com/o/oauth2/v2/auth"`
	OAuthTokenURL     string   `env:"AUTH_OAUTH_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	OAuthUserinfoURL  string   `env:"AUTH_OAUTH_USERINFO_URL" envDefault:"https://openidconnect.googleapis.com/v1/userinfo"`
	OAuthRedirectURL  string   `env:"AUTH_OAUTH_REDIRECT_URL" envDefault:"http://localhost:8081/api/v1/auth/oauth/google/callback"`
	OAuthScopes       []string `env:"AUTH_OAUTH_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`

	OAuthSuccessRedirect string `env:"AUTH_OAUTH_SUCCESS_REDIRECT" envDefault:"/"`
	OAuthFailureRedirect string `env:"AUTH_OAUTH_FAILURE_REDIRECT" envDefault:"/login"`

	NATSURL                 string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSVerifySubject       string `env:"NATS_SUBJECT_VERIFY_SESSION" envDefault:"auth.verifySession"`
	NATSPrincipalCreatedSub string `env:"NATS_SUBJECT_PRINCIPAL_CREATED" envDefault:"auth.principal-created"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
