package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// WorkerConfig contains all configuration for the worker pool process.
type WorkerConfig struct {
	Pool     PoolConfig     `mapstructure:"pool"`
	Store    StoreConfig    `mapstructure:"store"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Detector DetectorConfig `mapstructure:"detector"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// PoolConfig tunes the consuming loop.
type PoolConfig struct {
	Concurrency       int           `mapstructure:"concurrency"`
	VisibilityTimeout time.Duration `mapstructure:"visibility_timeout"`
	JanitorInterval   time.Duration `mapstructure:"janitor_interval"`
}

// DetectorConfig addresses the inference executor's model assets.
// ModelGlob is matched (doublestar syntax) under ModelDir; the newest
// match wins. No match is tolerated: the detector falls back to its
// built-in heuristics.
type DetectorConfig struct {
	ModelDir  string `mapstructure:"model_dir"`
	ModelGlob string `mapstructure:"model_glob"`
	MinArea   int    `mapstructure:"min_area"`
}

// LoadWorker loads the worker configuration from the given path.
// If configPath is empty, it looks for worker.yaml in the config/
// directory. A .env file is applied first; environment variables with the
// PCB_WORKER_ prefix override config file values.
func LoadWorker(configPath string) (*WorkerConfig, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("pool.concurrency", 4)
	v.SetDefault("pool.visibility_timeout", 5*time.Minute)
	v.SetDefault("pool.janitor_interval", 30*time.Second)
	setStoreDefaults(v)
	setQueueDefaults(v)
	v.SetDefault("detector.model_dir", "./ml/models")
	v.SetDefault("detector.model_glob", "**/*.onnx")
	v.SetDefault("detector.min_area", 64)
	setLoggingDefaults(v)

	if err := readConfigFile(v, configPath, "worker"); err != nil {
		return nil, err
	}

	v.SetEnvPrefix("PCB_WORKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg WorkerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
