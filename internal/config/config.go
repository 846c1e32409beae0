// Package config loads bookflow settings from a YAML file, BOOKFLOW_*
// environment variables and an optional .env file, in increasing precedence
// of environment over file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/valpere/bookflow/internal/completion"
	"github.com/valpere/bookflow/internal/logger"
	"github.com/valpere/bookflow/internal/source"
	"github.com/valpere/bookflow/internal/store"
)

const EnvPrefix = "BOOKFLOW"

type Config struct {
	Log        logger.Config     `mapstructure:"log"`
	Completion completion.Config `mapstructure:"completion"`
	Validation ValidationConfig  `mapstructure:"validation"`
	Source     source.Config     `mapstructure:"source"`
	Store      store.Config      `mapstructure:"store"`
	Server     ServerConfig      `mapstructure:"server"`
}

type ValidationConfig struct {
	// LanguageCheck rejects stage output written in a different language
	// than the source chapter.
	LanguageCheck bool `mapstructure:"language_check"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RewriteTimeout bounds a whole pipeline run started over HTTP. Runs are
	// detached from the client connection, so this is their only deadline.
	RewriteTimeout time.Duration `mapstructure:"rewrite_timeout"`
}

// fallbackKeys are the conventional provider variables consulted when
// completion.api_key is unset.
var fallbackKeys = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"gemini":     "GEMINI_API_KEY",
}

// SetDefaults registers every key so that environment variables can
// override values that appear in no config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.output_path", "")

	v.SetDefault("completion.provider", "ollama")
	v.SetDefault("completion.model", "")
	v.SetDefault("completion.base_url", "")
	v.SetDefault("completion.api_key", "")
	v.SetDefault("completion.project_id", "")
	v.SetDefault("completion.location", "")
	v.SetDefault("completion.credentials_file", "")
	v.SetDefault("completion.timeout", "120s")
	v.SetDefault("completion.temperature", 0.7)
	v.SetDefault("completion.max_tokens", 0)

	v.SetDefault("validation.language_check", true)

	def := source.DefaultConfig()
	v.SetDefault("source.timeout", def.Timeout)
	v.SetDefault("source.attempts", def.Attempts)
	v.SetDefault("source.backoff", def.Backoff)
	v.SetDefault("source.user_agent", def.UserAgent)

	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.sqlite.path", "bookflow.db")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "bookflow:")
	v.SetDefault("store.firestore.project_id", "")
	v.SetDefault("store.firestore.collection", "versions")
	v.SetDefault("store.firestore.ratings_collection", "ratings")
	v.SetDefault("store.firestore.credentials_file", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "15m")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.rewrite_timeout", "10m")
}

// Load reads configuration into v. configFile may be empty, in which case
// ./bookflow.yaml is used when present. envFiles are loaded with godotenv
// first; missing ones are ignored and existing variables are never replaced.
func Load(v *viper.Viper, configFile string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("bookflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Completion.APIKey == "" {
		if env, ok := fallbackKeys[strings.ToLower(cfg.Completion.Provider)]; ok {
			cfg.Completion.APIKey = os.Getenv(env)
		}
	}
	if cfg.Store.Firestore.ProjectID == "" {
		cfg.Store.Firestore.ProjectID = cfg.Completion.ProjectID
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that can never work.
func (c *Config) Validate() error {
	var errs []error
	if c.Source.Attempts < 1 {
		errs = append(errs, errors.New("source.attempts must be at least 1"))
	}
	if c.Completion.Timeout <= 0 {
		errs = append(errs, errors.New("completion.timeout must be positive"))
	}
	if c.Server.RewriteTimeout <= 0 {
		errs = append(errs, errors.New("server.rewrite_timeout must be positive"))
	}
	return errors.Join(errs...)
}
