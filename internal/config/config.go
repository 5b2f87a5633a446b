package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	TgToken          string
	WellAPIKey       string
	WellAPIURL       string
	AuthorizedUserID int64
	DBPath           string
	MsgsPath         string
	HealthAddr       string
	HTTPTimeout      time.Duration
	Debug            bool
}

// Load reads the configuration from the environment. A .env file is picked
// up when present; real deployments pass plain env vars. Missing required
// values are fatal for the caller: the bot must not start half-configured.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TgToken:    os.Getenv("BUCKETBOT_TOKEN"),
		WellAPIKey: os.Getenv("WELL_API_KEY"),
		WellAPIURL: os.Getenv("WELL_API_URL"),
		DBPath:     getEnv("BUCKETBOT_DB_PATH", "./bucketbot.db"),
		MsgsPath:   os.Getenv("BUCKETBOT_MSGS_PATH"),
		HealthAddr: os.Getenv("BUCKETBOT_HEALTH_ADDR"),
		Debug:      os.Getenv("BUCKETBOT_DEBUG") == "true",
	}
	if cfg.TgToken == "" {
		return nil, errors.New("BUCKETBOT_TOKEN is not set")
	}
	if cfg.WellAPIKey == "" {
		return nil, errors.New("WELL_API_KEY is not set")
	}
	rawUserID := os.Getenv("BUCKETBOT_USER_ID")
	if rawUserID == "" {
		return nil, errors.New("BUCKETBOT_USER_ID is not set")
	}
	userID, err := strconv.ParseInt(rawUserID, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "BUCKETBOT_USER_ID must be a telegram user id")
	}
	cfg.AuthorizedUserID = userID

	cfg.HTTPTimeout = time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 20)) * time.Second

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("warning: %s must be int, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
