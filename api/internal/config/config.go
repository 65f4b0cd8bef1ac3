package config

import (
	"log"
	"os"
)

type Config struct {
	Port string

	GeminiAPIKey string
	GeminiModel  string

	TelegramBotToken string
	WebhookURL       string

	// MasterdataPath overrides the built-in reference tables when set.
	MasterdataPath string

	// DefaultRuns is the voting run count per estimation.
	DefaultRuns string
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8000"),

		GeminiAPIKey: mustEnv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookURL:       os.Getenv("WEBHOOK_URL"),

		MasterdataPath: os.Getenv("MASTERDATA_PATH"),
		DefaultRuns:    getEnv("DEFAULT_RUNS", "1"),
	}
}
