package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Webhook    WebhookConfig
	Scheduler  SchedulerConfig
	Billing    BillingConfig
	Classifier ClassifierConfig
	Invoicing  InvoicingConfig
	Mail       MailConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

// RedisConfig holds Redis connection settings for the dedup store
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodySize  int64
}

// WebhookConfig holds inbound webhook verification settings. A missing
// secret in production is a startup error: verification fails closed.
type WebhookConfig struct {
	PaymentSecret   string
	SignatureSecret string
}

// SchedulerConfig holds recurring scheduler settings
type SchedulerConfig struct {
	Enabled     bool
	BillingHour int // hour of day for the daily billing pass
	ReportHour  int // hour of day on the 1st for the monthly report
}

// BillingConfig holds invoicing business parameters
type BillingConfig struct {
	DepositPercent  int // deposit share of a signed quote, in percent
	DepositDueDays  int // payment terms for deposit invoices
	DefaultDueDays  int // payment terms for all other invoices
	DeviationTolPct int // supplier invoice deviation tolerance, in percent
}

// ClassifierConfig holds the AI classification adapter settings
type ClassifierConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// InvoicingConfig holds the external invoicing service settings
type InvoicingConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// MailConfig holds the outbound notification settings. Inbox is the
// operations mailbox that receives alerts and the monthly treasury report.
type MailConfig struct {
	Host    string
	Port    int
	From    string
	Inbox   string
	Enabled bool
	Timeout time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with FIN_ prefix (e.g., FIN_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// no config file is fine, defaults and env vars apply
	}

	v.SetEnvPrefix("FIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Enabled:  v.GetBool("redis.enabled"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
			MaxBodySize:  v.GetInt64("http.max_body_size"),
		},
		Webhook: WebhookConfig{
			PaymentSecret:   v.GetString("webhook.payment_secret"),
			SignatureSecret: v.GetString("webhook.signature_secret"),
		},
		Scheduler: SchedulerConfig{
			Enabled:     v.GetBool("scheduler.enabled"),
			BillingHour: v.GetInt("scheduler.billing_hour"),
			ReportHour:  v.GetInt("scheduler.report_hour"),
		},
		Billing: BillingConfig{
			DepositPercent:  v.GetInt("billing.deposit_percent"),
			DepositDueDays:  v.GetInt("billing.deposit_due_days"),
			DefaultDueDays:  v.GetInt("billing.default_due_days"),
			DeviationTolPct: v.GetInt("billing.deviation_tolerance_pct"),
		},
		Classifier: ClassifierConfig{
			BaseURL:    v.GetString("classifier.base_url"),
			APIKey:     v.GetString("classifier.api_key"),
			Model:      v.GetString("classifier.model"),
			Timeout:    v.GetDuration("classifier.timeout"),
			MaxRetries: v.GetInt("classifier.max_retries"),
		},
		Invoicing: InvoicingConfig{
			BaseURL: v.GetString("invoicing.base_url"),
			APIKey:  v.GetString("invoicing.api_key"),
			Timeout: v.GetDuration("invoicing.timeout"),
		},
		Mail: MailConfig{
			Host:    v.GetString("mail.host"),
			Port:    v.GetInt("mail.port"),
			From:    v.GetString("mail.from"),
			Inbox:   v.GetString("mail.inbox"),
			Enabled: v.GetBool("mail.enabled"),
			Timeout: v.GetDuration("mail.timeout"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "finflow-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "finflow"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.Scheduler.BillingHour == 0 {
		cfg.Scheduler.BillingHour = 6
	}
	if cfg.Scheduler.ReportHour == 0 {
		cfg.Scheduler.ReportHour = 7
	}
	if cfg.Billing.DepositPercent == 0 {
		cfg.Billing.DepositPercent = 30
	}
	if cfg.Billing.DepositDueDays == 0 {
		cfg.Billing.DepositDueDays = 15
	}
	if cfg.Billing.DefaultDueDays == 0 {
		cfg.Billing.DefaultDueDays = 30
	}
	if cfg.Billing.DeviationTolPct == 0 {
		cfg.Billing.DeviationTolPct = 5
	}
	if cfg.Classifier.Model == "" {
		cfg.Classifier.Model = "gpt-4o-mini"
	}
	if cfg.Classifier.Timeout == 0 {
		cfg.Classifier.Timeout = 15 * time.Second
	}
	if cfg.Classifier.MaxRetries == 0 {
		cfg.Classifier.MaxRetries = 3
	}
	if cfg.Invoicing.Timeout == 0 {
		cfg.Invoicing.Timeout = 10 * time.Second
	}
	if cfg.Mail.Timeout == 0 {
		cfg.Mail.Timeout = 5 * time.Second
	}
	if cfg.Mail.Inbox == "" {
		cfg.Mail.Inbox = "finance@finflow.local"
	}
}

// validate checks that required settings are present. Webhook secrets are
// mandatory in production: without one the verifier rejects everything,
// so starting without it is a misconfiguration, not a fallback.
func (c *Config) validate() error {
	if c.IsProduction() {
		if c.Webhook.PaymentSecret == "" {
			return fmt.Errorf("webhook.payment_secret is required in production")
		}
		if c.Webhook.SignatureSecret == "" {
			return fmt.Errorf("webhook.signature_secret is required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
	}
	if c.Billing.DepositPercent < 0 || c.Billing.DepositPercent > 100 {
		return fmt.Errorf("billing.deposit_percent must be between 0 and 100")
	}
	return nil
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Addr returns the Redis address
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
