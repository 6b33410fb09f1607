package config

import (
	"fmt"
	"os"
)

// Config collects everything the process reads from the environment.
type Config struct {
	Port string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisAddr     string
	RedisPassword string

	JWTSecret string

	// TelegramBotToken is optional; without it offline notifications are off.
	TelegramBotToken string
}

// Load reads the configuration from the environment. Call godotenv.Load
// beforehand if a .env file should be honored.
func Load() *Config {
	return &Config{
		Port:             getenv("PORT", "8080"),
		DBHost:           getenv("DB_HOST", "localhost"),
		DBUser:           getenv("DB_USER", "user"),
		DBPassword:       getenv("DB_PASSWORD", "password"),
		DBName:           getenv("DB_NAME", "datelinkdb"),
		DBPort:           getenv("DB_PORT", "5432"),
		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		JWTSecret:        getenv("JWT_SECRET", "dev-secret-change-me"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
