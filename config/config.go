package config

import (
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/models"
)

var DB *gorm.DB

// Config holds everything the process reads from the environment.
type Config struct {
	BotToken    string
	WebhookURL  string
	WebhookPath string
	Port        int
	DatabaseURL string

	CloudflareAccountID string
	CloudflareAPIToken  string
	AWSRegion           string

	LogLevel string
}

// Load reads .env (when present) and the environment. The bot token and the
// database DSN are mandatory; the process refuses to start without them.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:            os.Getenv("BOT_TOKEN"),
		WebhookURL:          getEnv("WEBHOOK_URL", ""),
		WebhookPath:         getEnv("WEBHOOK_PATH", "/webhook"),
		Port:                getEnvInt("PORT", 8080),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		CloudflareAccountID: os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		CloudflareAPIToken:  os.Getenv("CLOUDFLARE_API_TOKEN"),
		AWSRegion:           os.Getenv("AWS_REGION"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}

	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is not set")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	return cfg, nil
}

func InitDB(dsn string) {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}
}

// Migrate applies the schema for every entity the bot persists. Split out of
// InitDB so tests can run it against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Meal{},
		&models.FoodItem{},
		&models.WaterEntry{},
		&models.WeightEntry{},
		&models.ShoppingList{},
		&models.ShoppingItem{},
		&models.Reminder{},
		&models.Activity{},
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
