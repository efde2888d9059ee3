package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerURL    string
	Username     string
	TypingExpiry time.Duration
	Port         string
	Host         string
	Env          string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("[CONFIG] No .env file found, relying on system environment variables")
	}

	cfg := &Config{
		ServerURL:    getEnv("CHAT_SERVER_URL", "ws://localhost:8080/ws"),
		Username:     getEnv("CHAT_USERNAME", ""),
		TypingExpiry: getDuration("CHAT_TYPING_EXPIRY", 3*time.Second),
		Port:         getEnv("PORT", "8080"),
		Host:         getEnv("HOST", "localhost"),
		Env:          getEnv("APP_ENV", "development"),
	}

	log.Printf("[CONFIG] Environment: %s", cfg.Env)
	log.Printf("[CONFIG] Server URL: %s", cfg.ServerURL)

	return cfg
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("[CONFIG] ⚠️  Invalid %s %q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
