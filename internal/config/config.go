package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dkeye/Garden/internal/logging"
	"github.com/dkeye/Garden/internal/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode            string         `mapstructure:"mode"`
	Host            string         `mapstructure:"host"`
	Port            int            `mapstructure:"port"`
	StaticPath      string         `mapstructure:"static_path"`
	MaxBodyBytes    int            `mapstructure:"max_body_bytes"`
	PingPeriod      time.Duration  `mapstructure:"ping_period"`
	SendBuffer      int            `mapstructure:"send_buffer"`
	ShutdownTimeout time.Duration  `mapstructure:"shutdown_timeout"`
	Log             logging.Config `mapstructure:"log"`
	OpLog           store.Limits   `mapstructure:"oplog"`
	Persist         PersistConfig  `mapstructure:"persist"`
	RateLimit       RateLimit      `mapstructure:"rate_limit"`
}

type PersistConfig struct {
	Debounce            time.Duration `mapstructure:"debounce"`
	store.BackendConfig `mapstructure:",squash"`
}

// RateLimit bounds submits per client IP; Limit 0 disables it.
type RateLimit struct {
	Limit    int           `mapstructure:"limit"`
	Interval time.Duration `mapstructure:"interval"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("host", "")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("max_body_bytes", 48*1024)
	v.SetDefault("ping_period", "15s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("shutdown_timeout", "5s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("oplog.max_fur_ops", store.DefaultMaxFurOps)
	v.SetDefault("oplog.max_flower_ops", store.DefaultMaxFlowerOps)
	v.SetDefault("persist.debounce", "200ms")
	v.SetDefault("persist.driver", store.DriverFile)
	v.SetDefault("persist.file.path", "data/state.json")
	v.SetDefault("persist.redis.address", "localhost:6379")
	v.SetDefault("persist.redis.password", "")
	v.SetDefault("persist.redis.db", 0)
	v.SetDefault("persist.redis.key", "garden:state")
	v.SetDefault("persist.s3.endpoint", "")
	v.SetDefault("persist.s3.region", "us-east-1")
	v.SetDefault("persist.s3.bucket", "")
	v.SetDefault("persist.s3.key", "garden/state.json")
	v.SetDefault("persist.s3.access_key_id", "")
	v.SetDefault("persist.s3.secret_access_key", "")
	v.SetDefault("persist.s3.use_path_style", false)
	v.SetDefault("rate_limit.limit", 0)
	v.SetDefault("rate_limit.interval", "1s")
}

// Load reads config/config.<CONFIG_ENV>.yaml (default env "dev") and lets
// environment variables override any key, with "." replaced by "_":
// PORT, PERSIST_DRIVER, PERSIST_FILE_PATH, ...
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile is Load with an explicit file; a missing file means defaults.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if _, err := os.Stat(fileName); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("persist", cfg.Persist.Driver).Msg("config resolved")
	return &cfg, nil
}
