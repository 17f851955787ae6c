package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AuthModeJWT     = "jwt"
	AuthModeCognito = "cognito"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	Mode      string        `mapstructure:"mode"` // jwt | cognito
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	Cognito   CognitoConfig `mapstructure:"cognito"`
}

type CognitoConfig struct {
	Region string `mapstructure:"region"`
}

type SchedulingConfig struct {
	MaxOccurrences       int  `mapstructure:"max_occurrences"`
	CheckOverlapOnUpdate bool `mapstructure:"check_overlap_on_update"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration with the precedence: environment (SCHED_*,
// including values from an optional .env file) > config file > defaults.
// An empty path looks for config.yaml in ./config and the working directory.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("server.port", 6060)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("db.path", "./database.db")

	v.SetDefault("auth.mode", AuthModeJWT)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.cognito.region", "us-east-1")

	v.SetDefault("scheduling.max_occurrences", 366)
	v.SetDefault("scheduling.check_overlap_on_update", false)

	v.SetDefault("log.level", "info")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SCHED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("invalid config: db.path is required")
	}
	switch c.Auth.Mode {
	case AuthModeJWT:
		if len(c.Auth.JWTSecret) < 16 {
			return fmt.Errorf("invalid config: auth.jwt_secret must be at least 16 characters")
		}
	case AuthModeCognito:
		if c.Auth.Cognito.Region == "" {
			return fmt.Errorf("invalid config: auth.cognito.region is required")
		}
	default:
		return fmt.Errorf("invalid config: unknown auth.mode %q", c.Auth.Mode)
	}
	if c.Scheduling.MaxOccurrences <= 0 {
		return fmt.Errorf("invalid config: scheduling.max_occurrences must be positive")
	}
	return nil
}
