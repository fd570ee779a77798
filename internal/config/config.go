// Package config reads the process configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/core"
	"backoffice/internal/log"

	"github.com/kelseyhightower/envconfig"
)

const (
	ExportMemory = "memory"
	ExportSheets = "sheets"
)

// Config is loaded from the environment by envconfig. Values that do not
// parse fail Load; cross-field rules live in Validate.
type Config struct {
	// HTTP Server
	Port               string `envconfig:"PORT" default:"8081"`
	Environment        string `envconfig:"APP_ENV" default:"production"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	// Database
	SQLiteDBPath string `envconfig:"SQLITE_DB_PATH" default:"./data/backoffice.db"`

	// AMQP
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"backoffice"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"document_summaries"`

	// Summary export
	ExportBackend            string `envconfig:"EXPORT_BACKEND" default:"memory"`
	GoogleSpreadsheetID      string `envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleSummarySheetName   string `envconfig:"GOOGLE_SUMMARY_SHEET_NAME" default:"Summaries"`
	GoogleServiceAccountFile string `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleServiceAccountJSON string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`

	// Worker
	SyncBatchSize int           `envconfig:"SYNC_BATCH_SIZE" default:"10"`
	SyncInterval  time.Duration `envconfig:"SYNC_INTERVAL" default:"30s"`
	APIBaseURL    string        `envconfig:"API_BASE_URL" default:"http://localhost:8081"`
	APIToken      string        `envconfig:"API_TOKEN"`

	// MetricsAddr is where the worker serves /metrics. Empty disables it.
	MetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`

	// Auth
	ServiceToken  string        `envconfig:"SERVICE_TOKEN"`
	AdminEmail    string        `envconfig:"ADMIN_EMAIL"`
	AdminPassword string        `envconfig:"ADMIN_PASSWORD"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"12h"`

	// Documents saved without a reporting currency get this one.
	ReportingCurrency core.Currency `envconfig:"REPORTING_CURRENCY" default:"EGP"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads the configuration from the environment. It fails on the first
// value that does not parse, e.g. SYNC_INTERVAL=30 or SESSION_TTL=abc.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	cfg.ReportingCurrency = core.Currency(strings.ToUpper(string(cfg.ReportingCurrency)))
	return &cfg, nil
}

// IsDevelopment relaxes the HTTPS-only security headers.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate checks the settings every binary shares and returns all problems
// at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.ExportBackend {
	case ExportMemory:
	case ExportSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "GOOGLE_SPREADSHEET_ID is required when using the sheets export backend")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the sheets export backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid export backend '%s': must be one of [%s %s]", c.ExportBackend, ExportMemory, ExportSheets))
	}

	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 500 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at most 500", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if !c.ReportingCurrency.Valid() {
		errors = append(errors, fmt.Sprintf("invalid reporting currency '%s': must be EGP or USD", c.ReportingCurrency))
	}
	if c.AdminEmail != "" && len(c.AdminPassword) < 8 {
		errors = append(errors, "ADMIN_PASSWORD must be at least 8 characters when ADMIN_EMAIL is set")
	}
	if c.ServiceToken != "" && len(c.ServiceToken) < 16 {
		errors = append(errors, "SERVICE_TOKEN must be at least 16 characters")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker adds the checks only the summary worker needs.
func (c *Config) ValidateWorker() error {
	var errors []string
	if err := c.Validate(); err != nil {
		errors = append(errors, err.Error())
	}
	if u, err := url.Parse(c.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s'", c.APIBaseURL))
	}
	if c.APIToken == "" {
		errors = append(errors, "API_TOKEN is required by the summary worker")
	}
	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "\n"))
	}
	return nil
}
