package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// HTTP server port
	Port string `env:"PORT" envDefault:"3000"`

	// Path to the sqlite database file
	DatabasePath string `env:"DATABASE_PATH" envDefault:"database/listings.db"`

	// Directory where uploaded images are stored
	UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads"`

	// Secret used to verify access_token cookies
	JWTSecret string `env:"JWT_SECRET" envDefault:"homestead-dev-secret"`

	// Origins allowed by the CORS middleware
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	// Sweeper configuration for orphaned upload cleanup
	Sweeper struct {
		// Whether the background sweeper runs at all
		Enabled bool `env:"SWEEPER_ENABLED" envDefault:"true"`

		// Minutes between sweeps of the upload directory
		Interval int `env:"SWEEPER_INTERVAL_MINUTES" envDefault:"60"`

		// Minimum file age in minutes before an unreferenced file is removed
		MinAge int `env:"SWEEPER_MIN_AGE_MINUTES" envDefault:"1440"`

		// Size of the cleanup queue buffer
		QueueSize int `env:"SWEEPER_QUEUE_SIZE" envDefault:"10"`

		// Maximum number of paths per cleanup batch
		BatchSize int `env:"SWEEPER_BATCH_SIZE" envDefault:"50"`
	}

	// Telegram notification configuration
	Telegram struct {
		IsEnabled bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
		BotToken  string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID    string `env:"TELEGRAM_CHAT_ID"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
