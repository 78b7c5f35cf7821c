package config

import (
	"os"
	"strconv"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Dispatcher struct {
	PollIntervalSeconds   int
	BatchSize             int
	Workers               int
	AdapterTimeoutSeconds int
	RetryLimit            int
	BackoffBaseSeconds    int
	BackoffCapSeconds     int
}

type Config struct {
	PostgresURI           string
	RedisURI              string
	FacebookAPIVersion    string
	WhatsappAPIVersion    string
	WhatsappPhoneNumberID string
	TelegramBotToken      string
	R2                    R2
	Dispatcher            Dispatcher
	SecretKey             string
	CookieName            string
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:           getEnv("POSTGRES_URI", ""),
		RedisURI:              getEnv("REDIS_URI", ""),
		FacebookAPIVersion:    getEnv("FACEBOOK_API_VERSION", "v18.0"),
		WhatsappAPIVersion:    getEnv("WHATSAPP_API_VERSION", "v18.0"),
		WhatsappPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		TelegramBotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		Dispatcher: Dispatcher{
			PollIntervalSeconds:   getEnvInt("POLL_INTERVAL_SECONDS", 15),
			BatchSize:             getEnvInt("DISPATCH_BATCH_SIZE", 50),
			Workers:               getEnvInt("DISPATCH_WORKERS", 10),
			AdapterTimeoutSeconds: getEnvInt("ADAPTER_TIMEOUT_SECONDS", 30),
			RetryLimit:            getEnvInt("RETRY_LIMIT", 5),
			BackoffBaseSeconds:    getEnvInt("BACKOFF_BASE_SECONDS", 30),
			BackoffCapSeconds:     getEnvInt("BACKOFF_CAP_SECONDS", 3600),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
