package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DevJWTSecret is only accepted when Env is not "production".
const DevJWTSecret = "stockroom-dev-secret-change-me"

// Config holds every runtime setting. Values come from an optional YAML
// file first, then environment variables (including .env) override them.
type Config struct {
	Env  string `yaml:"env"`
	Port string `yaml:"port"`

	DBDriver      string `yaml:"db_driver"`
	DBDSN         string `yaml:"db_dsn"`
	DBDSNReadOnly string `yaml:"db_dsn_readonly"`

	JWTSecret    string `yaml:"jwt_secret"`
	CookieSecure bool   `yaml:"cookie_secure"`
	CORSOrigin   string `yaml:"cors_origin"`

	RedisAddr        string        `yaml:"redis_addr"`
	LoginMaxAttempts int           `yaml:"login_max_attempts"`
	LoginWindow      time.Duration `yaml:"login_window"`

	UploadDir string `yaml:"upload_dir"`
	BaseURL   string `yaml:"base_url"`

	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`

	LogLevel string `yaml:"log_level"`
}

func defaults() Config {
	return Config{
		Env:              "development",
		Port:             "8080",
		DBDriver:         "mysql",
		CORSOrigin:       "http://localhost:5173",
		LoginMaxAttempts: 5,
		LoginWindow:      15 * time.Minute,
		UploadDir:        "./uploads",
		BaseURL:          "http://localhost:8080",
		GeminiModel:      "gemini-1.5-flash",
		LogLevel:         "info",
	}
}

// Load reads .env (a missing file only warns), then the YAML file at path
// if path is non-empty, then applies environment overrides.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	cfg := defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("APP_ENV", &cfg.Env)
	str("PORT", &cfg.Port)
	str("DB_DRIVER", &cfg.DBDriver)
	str("DB_DSN_PRIMARY", &cfg.DBDSN)
	str("DB_DSN_READONLY", &cfg.DBDSNReadOnly)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("CORS_ORIGIN", &cfg.CORSOrigin)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("UPLOAD_DIR", &cfg.UploadDir)
	str("BASE_URL", &cfg.BaseURL)
	str("GEMINI_API_KEY", &cfg.GeminiAPIKey)
	str("GEMINI_MODEL", &cfg.GeminiModel)
	str("LOG_LEVEL", &cfg.LogLevel)

	if v, ok := lookup("COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = b
	}
	if v, ok := lookup("LOGIN_MAX_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LOGIN_MAX_ATTEMPTS: %w", err)
		}
		cfg.LoginMaxAttempts = n
	}
	if v, ok := lookup("LOGIN_WINDOW"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LOGIN_WINDOW: %w", err)
		}
		cfg.LoginWindow = d
	}
	return nil
}

// IsProduction reports whether the service runs with production hardening.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "sqlite3":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("DB_DSN_PRIMARY is not set")
	}
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
	}
	if c.LoginMaxAttempts < 1 {
		return errors.New("LOGIN_MAX_ATTEMPTS must be positive")
	}
	if c.LoginWindow <= 0 {
		return errors.New("LOGIN_WINDOW must be positive")
	}
	return nil
}

// Secret returns the signing secret, falling back to DevJWTSecret outside production.
func (c Config) Secret() []byte {
	if c.JWTSecret == "" {
		return []byte(DevJWTSecret)
	}
	return []byte(c.JWTSecret)
}
