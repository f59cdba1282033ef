package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	RedisURL                string
	JWTSecret               string
	MetricsPort             string

	FeedHotWindow       int
	FeedReportThreshold int64
	PageMaxLimit        int
	PageDefaultLimit    int
	UnreadCacheTTL      time.Duration
}

// Load reads .env (when present) and the process environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "socialmedia"),
		RedisURL:                getEnv("REDIS_URL", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),

		FeedHotWindow:       getEnvInt("FEED_HOT_WINDOW", 60),
		FeedReportThreshold: int64(getEnvInt("FEED_REPORT_THRESHOLD", 5)),
		PageMaxLimit:        getEnvInt("PAGE_MAX_LIMIT", 50),
		PageDefaultLimit:    getEnvInt("PAGE_DEFAULT_LIMIT", 20),
		UnreadCacheTTL:      time.Duration(getEnvInt("UNREAD_CACHE_TTL_SECONDS", 300)) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid integer setting, using default")
		return defaultValue
	}
	return n
}
