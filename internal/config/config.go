package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// File trees for generated artifacts and uploaded attachments
	ReportsDir string
	UploadsDir string

	// Renderer selection
	Renderer      string // "typst" or "gotenberg"
	TypstBin      string
	TypstRoot     string // root passed to typst so templates can reach assets
	GotenbergURL  string
	RenderTimeout time.Duration

	// AMQP (audit events + recap sync)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets recap mirror (worker)
	GoogleSpreadsheetID string
	RecapSheetName      string

	// Worker
	SyncBatchSize int
	SyncInterval  time.Duration
}

const (
	RendererTypst     = "typst"
	RendererGotenberg = "gotenberg"
)

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/lapor.db"),

		ReportsDir: getEnv("REPORTS_DIR", "./reports"),
		UploadsDir: getEnv("UPLOADS_DIR", "./uploads"),

		Renderer:      getEnv("RENDERER", RendererTypst),
		TypstBin:      getEnv("TYPST_BIN", "typst"),
		TypstRoot:     getEnv("TYPST_ROOT", "."),
		GotenbergURL:  getEnv("GOTENBERG_URL", "http://localhost:3000"),
		RenderTimeout: getEnvDuration("RENDER_TIMEOUT", 30*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "lapor"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		RecapSheetName:      getEnv("RECAP_SHEET_NAME", "Rekap"),

		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 30*time.Second),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	for _, d := range []struct{ name, path string }{
		{"reports", c.ReportsDir},
		{"uploads", c.UploadsDir},
	} {
		if d.path == "" {
			errs = append(errs, fmt.Sprintf("%s directory cannot be empty", d.name))
			continue
		}
		if err := os.MkdirAll(d.path, 0755); err != nil {
			errs = append(errs, fmt.Sprintf("cannot create %s directory '%s': %v", d.name, d.path, err))
		}
	}

	switch c.Renderer {
	case RendererTypst:
		if c.TypstBin == "" {
			errs = append(errs, "typst binary path cannot be empty when using the typst renderer")
		}
	case RendererGotenberg:
		if parsed, err := url.Parse(c.GotenbergURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs = append(errs, fmt.Sprintf("invalid gotenberg URL '%s'", c.GotenbergURL))
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid renderer '%s': must be one of [%s %s]", c.Renderer, RendererTypst, RendererGotenberg))
	}

	if c.RenderTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid render timeout %v: must be at least 1 second", c.RenderTimeout))
	} else if c.RenderTimeout > 10*time.Minute {
		errs = append(errs, fmt.Sprintf("invalid render timeout %v: must be at most 10 minutes", c.RenderTimeout))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" && c.RecapSheetName == "" {
		errs = append(errs, "recap sheet name cannot be empty when a spreadsheet ID is provided")
	}

	if c.SyncBatchSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errs = append(errs, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
