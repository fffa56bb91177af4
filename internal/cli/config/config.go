package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultJudgeBaseURL = "http://127.0.0.1:2358"
	DefaultTimeout      = 10 * time.Second
	DefaultCookiePath   = "configs/cookies.json"
)

// UserSeed is a development account registered with the local identity
// provider at startup.
type UserSeed struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// IdentityConfig configures the local identity provider.
type IdentityConfig struct {
	JWTSecret string     `yaml:"jwtSecret"`
	JWTIssuer string     `yaml:"jwtIssuer"`
	Users     []UserSeed `yaml:"users"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config holds client configuration.
type Config struct {
	JudgeBaseURL  string         `yaml:"judgeBaseURL"`
	Timeout       time.Duration  `yaml:"timeout"`
	PollInterval  time.Duration  `yaml:"pollInterval"`
	MaxPolls      int            `yaml:"maxPolls"`
	ProblemID     string         `yaml:"problemId"`
	CookieBackend string         `yaml:"cookieBackend"` // file or redis
	CookiePath    string         `yaml:"cookiePath"`
	RedisAddr     string         `yaml:"redisAddr"`
	Identity      IdentityConfig `yaml:"identity"`
	Log           LogConfig      `yaml:"log"`
}

// Load reads the config file and fills in defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file failed: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// LoadOrDefault behaves like Load but a missing file yields the defaults.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			defaults := Config{}
			applyDefaults(&defaults)
			return defaults, nil
		}
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.JudgeBaseURL == "" {
		cfg.JudgeBaseURL = DefaultJudgeBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.CookieBackend == "" {
		cfg.CookieBackend = "file"
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = DefaultCookiePath
	}
	if cfg.Identity.JWTSecret == "" {
		cfg.Identity.JWTSecret = "codepad-dev-secret"
	}
	if cfg.Identity.JWTIssuer == "" {
		cfg.Identity.JWTIssuer = "codepad"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}
