package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// APIServerConfig contains all configuration for the apiserver process
// (submission gateway plus the status/history query API).
type APIServerConfig struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Store   StoreConfig   `mapstructure:"store"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Uploads UploadsConfig `mapstructure:"uploads"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

// LoadAPIServer loads the apiserver configuration from the given path.
// If configPath is empty, it looks for apiserver.yaml in the config/
// directory. A .env file is applied first; environment variables with the
// PCB_APISERVER_ prefix override config file values.
func LoadAPIServer(configPath string) (*APIServerConfig, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("http.addr", ":8000")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.max_upload_mb", 16)
	setStoreDefaults(v)
	setQueueDefaults(v)
	v.SetDefault("uploads.dir", "./uploads")
	setLoggingDefaults(v)

	if err := readConfigFile(v, configPath, "apiserver"); err != nil {
		return nil, err
	}

	v.SetEnvPrefix("PCB_APISERVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg APIServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setStoreDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "./pcb_defects.db")
}

func setQueueDefaults(v *viper.Viper) {
	v.SetDefault("queue.backend", "redis")
	v.SetDefault("queue.addr", "localhost:6379")
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 0)
	v.SetDefault("queue.key", "pcb:inspections")
}

func setLoggingDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func readConfigFile(v *viper.Viper, configPath, name string) error {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(name)
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}
