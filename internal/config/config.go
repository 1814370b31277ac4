package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string // postgres DSN, or sqlite:<path> for local runs
	RedisURL            string
	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentCurrency     string
	MonthlyCapacity     int64
	AdminEmail          string // receives admin-alert notifications
	MailProvider        string // brevo or smtp
	SendinblueAPIKey    string
	MailFrom            string
	SMTPHost            string
	SMTPPort            string
	SMTPUsername        string
	SMTPPassword        string
	StudioName          string
	SiteURL             string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	BookingRateLimit    int
	BookingRateWindow   time.Duration

	// ADMIN_BOOTSTRAP_* creates the first admin account at startup when both are set.
	AdminBootstrapEmail    string
	AdminBootstrapPassword string
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		Env:                    v.GetString("APP_ENV"),
		Port:                   v.GetString("PORT"),
		SessionSecret:          v.GetString("SESSION_SECRET"),
		DatabaseURL:            v.GetString("DATABASE_URL"),
		RedisURL:               v.GetString("REDIS_URL"),
		StripeSecretKey:        v.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:    v.GetString("STRIPE_WEBHOOK_SECRET"),
		PaymentCurrency:        strings.ToLower(v.GetString("PAYMENT_CURRENCY")),
		MonthlyCapacity:        v.GetInt64("MONTHLY_CAPACITY"),
		AdminEmail:             v.GetString("ADMIN_EMAIL"),
		MailProvider:           strings.ToLower(v.GetString("MAIL_PROVIDER")),
		SendinblueAPIKey:       v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:               v.GetString("MAIL_FROM"),
		SMTPHost:               v.GetString("SMTP_HOST"),
		SMTPPort:               v.GetString("SMTP_PORT"),
		SMTPUsername:           v.GetString("SMTP_USERNAME"),
		SMTPPassword:           v.GetString("SMTP_PASSWORD"),
		StudioName:             v.GetString("STUDIO_NAME"),
		SiteURL:                strings.TrimRight(v.GetString("SITE_URL"), "/"),
		FrontendURLEndsWith:    v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:            v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:      v.GetBool("ALLOW_CROSS_SITE_DEV"),
		HealthAdminKey:         v.GetString("HEALTH_ADMIN_KEY"),
		BookingRateLimit:       v.GetInt("BOOKING_RATE_LIMIT"),
		BookingRateWindow:      v.GetDuration("BOOKING_RATE_WINDOW"),
		AdminBootstrapEmail:    v.GetString("ADMIN_BOOTSTRAP_EMAIL"),
		AdminBootstrapPassword: v.GetString("ADMIN_BOOTSTRAP_PASSWORD"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "sqlite:studio.db")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("PAYMENT_CURRENCY", "aud")
	v.SetDefault("MONTHLY_CAPACITY", 4)
	v.SetDefault("MAIL_PROVIDER", "brevo")
	v.SetDefault("MAIL_FROM", "noreply@studio.local")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("STUDIO_NAME", "Studio")
	v.SetDefault("SITE_URL", "http://localhost:3000")
	v.SetDefault("BOOKING_RATE_LIMIT", 10)
	v.SetDefault("BOOKING_RATE_WINDOW", "15m")
}

func (c *Config) validate() error {
	if c.MonthlyCapacity <= 0 {
		return fmt.Errorf("MONTHLY_CAPACITY must be positive, got %d", c.MonthlyCapacity)
	}
	switch c.MailProvider {
	case "brevo", "smtp":
	default:
		return fmt.Errorf("MAIL_PROVIDER must be brevo or smtp, got %q", c.MailProvider)
	}
	if c.IsProduction() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	if c.BookingRateLimit <= 0 || c.BookingRateWindow <= 0 {
		return fmt.Errorf("BOOKING_RATE_LIMIT and BOOKING_RATE_WINDOW must be positive")
	}
	return nil
}
