package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Verifier  VerifierConfig  `mapstructure:"verifier"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type StorageConfig struct {
	Driver string       `mapstructure:"driver"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type WebhookConfig struct {
	// Secret is the shared HMAC secret for inbound deliveries. The serve
	// command refuses to start without it.
	Secret string `mapstructure:"secret"`
	// Projects maps origin repository names to project identifiers.
	// Deliveries for unmapped repositories are stored but never dispatched.
	Projects       map[string]string `mapstructure:"projects"`
	AllowedAuthors []string          `mapstructure:"allowed_authors"`
	AdminToken     string            `mapstructure:"admin_token"`
}

type ProcessorConfig struct {
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
	FetchLimit       int           `mapstructure:"fetch_limit"`
	WorkspaceRoot    string        `mapstructure:"workspace_root"`
}

type VerifierConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type GitHubConfig struct {
	Token   string        `mapstructure:"token"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("hookpipe")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/hookpipe")
	}

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("HOOKPIPE")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("storage.driver", "sqlite")
	viper.SetDefault("storage.sqlite.path", "./data/hookpipe.db")

	viper.SetDefault("webhook.allowed_authors", []string{"scar-bot"})

	viper.SetDefault("processor.poll_interval", 30*time.Second)
	viper.SetDefault("processor.batch_concurrency", 3)
	viper.SetDefault("processor.fetch_limit", 10)
	viper.SetDefault("processor.workspace_root", "./workspaces")

	viper.SetDefault("verifier.timeout", 10*time.Minute)

	viper.SetDefault("github.base_url", "https://api.github.com")
	viper.SetDefault("github.timeout", 30*time.Second)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}
