package config

// LoggingConfig contains logging-related configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig selects and addresses the job status store backend.
// Driver is one of "memory", "postgres" or "sqlite".
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// QueueConfig selects and addresses the task queue backend.
// Backend is one of "memory" or "redis". Memory is only meaningful when
// the apiserver and the worker pool run in the same process; split
// deployments need redis so both sides see the same queue.
type QueueConfig struct {
	Backend  string `mapstructure:"backend"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// UploadsConfig addresses the image store shared by the gateway (writes)
// and the workers (reads).
type UploadsConfig struct {
	Dir string `mapstructure:"dir"`
}
