package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Blob     BlobConfig     `mapstructure:"blob"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// RedisConfig contains the optional redis connection used for cross-process
// queue change notifications. When Addr is empty the application falls back
// to the in-memory emitter and pure polling.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// BlobConfig contains the object store settings for uploaded resume files.
type BlobConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// LLMConfig contains all AI provider integration settings.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName         string `mapstructure:"model_name" validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds"`
}

// TaskConfig contains the orchestration timing knobs.
type TaskConfig struct {
	// DispatchIntervalSeconds is how often the dispatcher scans for due
	// deferred tasks.
	DispatchIntervalSeconds int `mapstructure:"dispatch_interval_seconds" validate:"required,gt=0"`

	// ReaperIntervalSeconds is how often the reaper scans for stuck tasks.
	ReaperIntervalSeconds int `mapstructure:"reaper_interval_seconds" validate:"required,gt=0"`

	// StuckTaskAgeMinutes is the grace period before a running task with
	// no progress updates is force-cleared.
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"required,gt=0"`

	// StreamBufferSize is the event buffer for progress streams.
	StreamBufferSize int `mapstructure:"stream_buffer_size"`

	// MatchScheduleHour is the default local hour for deferred match batches.
	MatchScheduleHour int `mapstructure:"match_schedule_hour" validate:"gte=0,lt=24"`

	// GenerateScheduleHour is the default local hour for deferred generation tasks.
	GenerateScheduleHour int `mapstructure:"generate_schedule_hour" validate:"gte=0,lt=24"`

	// ClientPollSeconds is the queue refresh interval advertised to clients.
	ClientPollSeconds int `mapstructure:"client_poll_seconds" validate:"required,gt=0"`
}
