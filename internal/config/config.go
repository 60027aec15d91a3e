package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI       string
	DBName         string
	JWTSecret      string
	AccessTokenTTL time.Duration

	GatewayBaseURL   string
	GatewaySecretKey string

	Currency              string
	FreeShippingThreshold float64
	BaseShippingCost      float64
	TaxRate               float64

	BankName          string
	BankAccountName   string
	BankAccountNumber string

	SMTPServer string
	SMTPPort   string
	SMTPUser   string
	SMTPPass   string
	FromAddr   string
	FromName   string
	AdminEmail string

	OrderExpiry    time.Duration
	ProofUploadDir string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:       getEnvOrDefault("MONGO_URI", ""),
		DBName:         getEnvOrDefault("DB_NAME", "symbolstores"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),

		GatewayBaseURL:   getEnvOrDefault("GATEWAY_BASE_URL", "https://api.flutterwave.com/v3"),
		GatewaySecretKey: getEnvOrDefault("GATEWAY_SECRET_KEY", ""),

		Currency:              getEnvOrDefault("STORE_CURRENCY", "NGN"),
		FreeShippingThreshold: getFloatEnv("FREE_SHIPPING_THRESHOLD", 990000),
		BaseShippingCost:      getFloatEnv("BASE_SHIPPING_COST", 15000),
		TaxRate:               getFloatEnv("TAX_RATE", 0.075),

		BankName:          getEnvOrDefault("BANK_NAME", ""),
		BankAccountName:   getEnvOrDefault("BANK_ACCOUNT_NAME", ""),
		BankAccountNumber: getEnvOrDefault("BANK_ACCOUNT_NUMBER", ""),

		SMTPServer: getEnvOrDefault("SMTP_SERVER", ""),
		SMTPPort:   getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:   getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:   getEnvOrDefault("SMTP_PASS", ""),
		FromAddr:   getEnvOrDefault("FROM_ADDR", ""),
		FromName:   getEnvOrDefault("FROM_NAME", "Symbol Stores"),
		AdminEmail: getEnvOrDefault("ADMIN_EMAIL", ""),

		OrderExpiry:    getDurationEnv("ORDER_EXPIRY_HOURS", 48, time.Hour),
		ProofUploadDir: getEnvOrDefault("PROOF_UPLOAD_DIR", "uploads/proofs"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}
