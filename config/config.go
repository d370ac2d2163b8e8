package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the pipeline reads from the environment.
// Loaded once in main and passed down explicitly; no package-level state.
type Config struct {
	Port        string
	DatabaseURL string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	RazorpayTestMode  bool

	Currency              string
	FreeShippingThreshold float64
	FlatShippingRate      float64
	GSTRate               float64

	PendingOrderTTL time.Duration
	SweepInterval   time.Duration

	JWTSecret   string
	AdminAPIKey string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "feriwala"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:   getEnv("RAZORPAY_API_URL", "https://api.razorpay.com"),
		RazorpayTestMode:  getEnv("RAZORPAY_MODE", "live") != "live",

		Currency:              getEnv("CURRENCY", "INR"),
		FreeShippingThreshold: getEnvFloat("FREE_SHIPPING_THRESHOLD", 499),
		FlatShippingRate:      getEnvFloat("FLAT_SHIPPING_RATE", 50),
		GSTRate:               getEnvFloat("GST_RATE", 0.18),

		PendingOrderTTL: getEnvDuration("PENDING_ORDER_TTL", 30*time.Minute),
		SweepInterval:   getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),
	}

	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		return nil, fmt.Errorf("razorpay configuration missing")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
