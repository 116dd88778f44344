package config

import (
	"log"
	"os"
)

type Config struct {
	Port       string
	WebhookURL string

	TelegramBotToken string

	LUISEndpoint        string
	LUISAppID           string
	LUISSubscriptionKey string

	VisionEngine   string // "azure" | "gemini"
	VisionEndpoint string
	VisionAPIKey   string

	GeminiAPIKey string
	GeminiModel  string
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
	cfg := &Config{
		Port:       getEnv("PORT", "8000"),
		WebhookURL: getEnv("WEBHOOK_URL", ""),

		TelegramBotToken: mustEnv("TELEGRAM_BOT_TOKEN"),

		LUISEndpoint:        getEnv("LUIS_ENDPOINT", "https://westus.api.cognitive.microsoft.com"),
		LUISAppID:           mustEnv("LUIS_APP_ID"),
		LUISSubscriptionKey: mustEnv("LUIS_SUBSCRIPTION_KEY"),

		VisionEngine:   getEnv("VISION_ENGINE", "azure"),
		VisionEndpoint: getEnv("VISION_ENDPOINT", "https://northeurope.api.cognitive.microsoft.com"),
		VisionAPIKey:   getEnv("VISION_API_KEY", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
	}

	switch cfg.VisionEngine {
	case "azure":
		if cfg.VisionAPIKey == "" {
			log.Fatal("VISION_ENGINE=azure requires VISION_API_KEY")
		}
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Fatal("VISION_ENGINE=gemini requires GEMINI_API_KEY")
		}
	default:
		log.Fatalf("unknown VISION_ENGINE %q (want azure or gemini)", cfg.VisionEngine)
	}

	return cfg
}
