package config

import (
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var loadOnce sync.Once

// LoadEnv loads a .env file into the process environment once. A missing
// file is not an error; deployments set the variables directly.
func LoadEnv() {
	loadOnce.Do(func() {
		_ = godotenv.Load()
	})
}

// Config is the typed configuration snapshot handed to controllers.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	RabbitMQURL string
	JWTSecret   string

	Razorpay RazorpayConfig
	SMTP     SMTPConfig

	// AdminEmails is the allowlist for the tax configuration admin routes.
	AdminEmails []string
	// TaxCacheTTLSeconds bounds how long a tax snapshot may be served from Redis.
	TaxCacheTTLSeconds int
	Currency           string
	SupportEmail       string
	// PlanPrices lists subscription prices as "plan:cycle=amount" pairs.
	PlanPrices string
}

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load reads configuration from the environment (after LoadEnv) with viper
// defaults applied.
func Load() *Config {
	LoadEnv()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8081")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("TAX_CACHE_TTL_SECONDS", 60)
	v.SetDefault("PAYMENT_CURRENCY", "INR")
	v.SetDefault("SUPPORT_EMAIL", "support@spaces.local")
	v.SetDefault("SUBSCRIPTION_PLAN_PRICES", "pro:monthly=999,pro:yearly=9999")

	return &Config{
		Port:        v.GetString("PORT"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		RedisURL:    v.GetString("REDIS_URL"),
		RabbitMQURL: v.GetString("RABBITMQ_URL"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		Razorpay: RazorpayConfig{
			KeyID:     v.GetString("RAZORPAY_KEY_ID"),
			KeySecret: v.GetString("RAZORPAY_KEY_SECRET"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("FROM_EMAIL"),
		},
		AdminEmails:        ParseEmailList(v.GetString("ADMIN_EMAILS")),
		TaxCacheTTLSeconds: v.GetInt("TAX_CACHE_TTL_SECONDS"),
		Currency:           strings.ToUpper(v.GetString("PAYMENT_CURRENCY")),
		SupportEmail:       v.GetString("SUPPORT_EMAIL"),
		PlanPrices:         v.GetString("SUBSCRIPTION_PLAN_PRICES"),
	}
}

// ParseEmailList splits a comma separated list, lowercasing and dropping blanks.
func ParseEmailList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsAdmin reports whether email is on the admin allowlist.
func (c *Config) IsAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, admin := range c.AdminEmails {
		if admin == email {
			return true
		}
	}
	return false
}

// JWTSecretBytes returns the signing secret, falling back to an insecure
// development value when JWT_SECRET is unset.
func (c *Config) JWTSecretBytes() []byte {
	if c.JWTSecret == "" {
		if os.Getenv("GIN_MODE") != "release" {
			return []byte("default-insecure-secret-only-for-development")
		}
	}
	return []byte(c.JWTSecret)
}
