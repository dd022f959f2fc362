package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the process needs, resolved once at startup.
type Config struct {
	Server  ServerConfig
	Tables  TableConfig
	LightX  LightXConfig
	Overlay OverlayConfig
	Polling PollingConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type TableConfig struct {
	Orders       string
	Avatars      string
	Filters      string
	OrderCounter string
	AvatarViews  string
}

type LightXConfig struct {
	BaseURL string
	APIKey  string
}

type OverlayConfig struct {
	FormatURL string // resize/overlay Lambda function URL
	AssetURL  string // default overlay frame image
	QueueURL  string // SQS queue for async overlay jobs
}

type PollingConfig struct {
	MaxAttempts         int
	Interval            time.Duration
	DispatchConcurrency int
}

func Load() *Config {
	_ = godotenv.Load()

	maxAttempts, _ := strconv.Atoi(getEnv("POLL_MAX_ATTEMPTS", "10"))
	intervalSecs, _ := strconv.Atoi(getEnv("POLL_INTERVAL_SECONDS", "5"))
	dispatchWorkers, _ := strconv.Atoi(getEnv("DISPATCH_CONCURRENCY", "6"))

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Tables: TableConfig{
			Orders:       getEnv("ORDERS_TABLE", "Orders"),
			Avatars:      getEnv("AVATARS_TABLE", "Avatars"),
			Filters:      getEnv("FILTERS_TABLE", "Filters"),
			OrderCounter: getEnv("ORDER_COUNTER_TABLE", "OrderCounter"),
			AvatarViews:  getEnv("AVATAR_VIEWS_TABLE", "AvatarViews"),
		},
		LightX: LightXConfig{
			BaseURL: getEnv("LIGHTX_BASE_URL", "https://api.lightxeditor.com"),
			APIKey:  getEnv("LIGHTX_API_KEY", ""),
		},
		Overlay: OverlayConfig{
			FormatURL: getEnv("FORMAT_IMAGE_URL", ""),
			AssetURL:  getEnv("OVERLAY_ASSET_URL", ""),
			QueueURL:  getEnv("OVERLAY_QUEUE_URL", ""),
		},
		Polling: PollingConfig{
			MaxAttempts:         maxAttempts,
			Interval:            time.Duration(intervalSecs) * time.Second,
			DispatchConcurrency: dispatchWorkers,
		},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
