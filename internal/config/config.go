package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config 应用配置
type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		DBPath    string    `env:"DB_PATH" envDefault:"./data/sporttracker.db"`
		JWTSecret string    `env:"JWT_SECRET" envDefault:"your-secret-key-change-in-production"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Tile      Tile      `envPrefix:"TILE_"`
		RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
		Redis     Redis     `envPrefix:"REDIS_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
	}

	HTTP struct {
		Port            string        `env:"PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
		MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"` // 32MB GPX upload limit
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`
	}

	// Tile holds the tile hunting settings. BaseZoom must never change
	// for an existing database, all persisted tiles are stored at it.
	Tile struct {
		BaseZoom       int    `env:"BASE_ZOOM" envDefault:"14"`
		Size           int    `env:"SIZE" envDefault:"256"`
		BorderColor    string `env:"BORDER_COLOR" envDefault:"#00000060"`
		MaxSquareColor string `env:"MAX_SQUARE_COLOR" envDefault:"#0000FF60"`
	}

	RateLimit struct {
		Requests int           `env:"REQUESTS" envDefault:"600"`
		Window   time.Duration `env:"WINDOW" envDefault:"1m"`
	}

	Redis struct {
		Enabled  bool          `env:"ENABLED" envDefault:"false"`
		Addr     string        `env:"ADDR" envDefault:"localhost:6379"`
		Password string        `env:"PASSWORD" envDefault:""`
		DB       int           `env:"DB" envDefault:"0"`
		TTL      time.Duration `env:"TTL" envDefault:"24h"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"sporttracker"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	}
)

// Load 加载配置
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges that env tags cannot express
func (c *Config) Validate() error {
	if c.Tile.BaseZoom < 0 || c.Tile.BaseZoom > 20 {
		return fmt.Errorf("TILE_BASE_ZOOM must be between 0 and 20, got %d", c.Tile.BaseZoom)
	}
	if c.Tile.Size <= 0 {
		return fmt.Errorf("TILE_SIZE must be positive, got %d", c.Tile.Size)
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimit.Requests)
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.HTTP.Port
}
