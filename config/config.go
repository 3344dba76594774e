package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"douban-pulse/notifier"
	"douban-pulse/scraper"
	"douban-pulse/storage"
)

const (
	RunModeScheduler = "scheduler"
	RunModeOnce      = "once"
	RunModeEmailTest = "email-test"

	DefaultDataPath = "./data"
	DefaultAPIAddr  = ":5000"
	DefaultSMTPPort = 587
)

// DefaultScheduleSpecs fire at 10:00 and 17:00 every day.
var DefaultScheduleSpecs = []string{"0 0 10 * * *", "0 0 17 * * *"}

// DefaultHotSearchSpecs fire at the top of every hour.
var DefaultHotSearchSpecs = []string{"0 0 * * * *"}

// Config is everything the binaries need, resolved once at startup.
type Config struct {
	RunMode      string
	RunAtStartup bool

	Storage storage.Options
	Fetcher scraper.FetcherConfig
	Crawler scraper.CrawlerConfig

	HotSearchURL   string
	HotSearchLimit int

	ScheduleSpecs  []string
	HotSearchSpecs []string
	APIAddr        string

	Email notifier.EmailConfig
}

// LoadFile reads a .env file into the environment and then calls Load.
// Variables already set in the environment take precedence.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return Load()
}

// Load builds a Config from environment variables. Malformed numbers fall
// back to their defaults; an unknown run mode or driver is an error.
func Load() (*Config, error) {
	cfg := &Config{
		RunMode:      strings.ToLower(envString("RUN_MODE", RunModeScheduler)),
		RunAtStartup: envBool("RUN_AT_STARTUP", false),
		Storage: storage.Options{
			Driver:   strings.ToLower(envString("DB_DRIVER", storage.DriverSQLite)),
			DataPath: envString("DATA_PATH", DefaultDataPath),
			DSN:      os.Getenv("DATABASE_URL"),
		},
		Fetcher: scraper.FetcherConfig{
			BaseURL:  envString("DOUBAN_BASE_URL", scraper.DefaultBaseURL),
			PageSize: envInt("DOUBAN_PAGE_SIZE", scraper.DefaultPageSize),
			Timeout:  envDuration("REQUEST_TIMEOUT", scraper.DefaultTimeout),
		},
		Crawler: scraper.CrawlerConfig{
			Pages: envInt("DOUBAN_PAGES", scraper.DefaultPages),
			Delay: envDuration("REQUEST_DELAY", scraper.DefaultDelay),
		},
		HotSearchURL:   envString("HOT_SEARCH_URL", scraper.DefaultHotSearchURL),
		HotSearchLimit: envInt("HOT_SEARCH_LIMIT", scraper.DefaultHotSearchLimit),
		ScheduleSpecs:  envList("SCHEDULE_SPECS", DefaultScheduleSpecs),
		HotSearchSpecs: envList("HOT_SEARCH_SCHEDULE_SPECS", DefaultHotSearchSpecs),
		APIAddr:        envString("API_ADDR", DefaultAPIAddr),
		Email: notifier.EmailConfig{
			SMTPHost:       os.Getenv("EMAIL_SMTP_HOST"),
			SMTPPort:       envInt("EMAIL_SMTP_PORT", DefaultSMTPPort),
			SMTPUser:       envString("EMAIL_SMTP_USER", "api"),
			SenderEmail:    os.Getenv("EMAIL_SENDER"),
			SenderPassword: os.Getenv("EMAIL_PASSWORD"),
			RecipientEmail: os.Getenv("EMAIL_RECIPIENT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.RunMode {
	case RunModeScheduler, RunModeOnce, RunModeEmailTest:
	default:
		return fmt.Errorf("invalid RUN_MODE %q: want %s, %s or %s", c.RunMode, RunModeScheduler, RunModeOnce, RunModeEmailTest)
	}

	switch c.Storage.Driver {
	case storage.DriverSQLite:
	case storage.DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("DB_DRIVER=%s requires DATABASE_URL", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("invalid DB_DRIVER %q", c.Storage.Driver)
	}

	if len(c.ScheduleSpecs) == 0 {
		return fmt.Errorf("SCHEDULE_SPECS is empty")
	}
	if len(c.HotSearchSpecs) == 0 {
		return fmt.Errorf("HOT_SEARCH_SCHEDULE_SPECS is empty")
	}
	return nil
}

// EmailEnabled reports whether enough is configured to send mail.
func (c *Config) EmailEnabled() bool {
	return c.Email.SMTPHost != "" && c.Email.RecipientEmail != ""
}

// LogSummary prints the effective settings with secrets masked.
func (c *Config) LogSummary() {
	log.Printf("Run mode: %s (run at startup: %t)", c.RunMode, c.RunAtStartup)
	log.Printf("Storage: driver=%s data=%s", c.Storage.Driver, c.Storage.DataPath)
	log.Printf("Douban: %s pages=%d size=%d delay=%s timeout=%s",
		c.Fetcher.BaseURL, c.Crawler.Pages, c.Fetcher.PageSize, c.Crawler.Delay, c.Fetcher.Timeout)
	log.Printf("Schedule: top list %s, hot search %s", strings.Join(c.ScheduleSpecs, " | "), strings.Join(c.HotSearchSpecs, " | "))
	log.Printf("Email Configuration: Host=%s, Port=%d, Sender=%s, Token=%s, Recipient=%s",
		c.Email.SMTPHost, c.Email.SMTPPort, c.Email.SenderEmail, maskSecret(c.Email.SenderPassword), c.Email.RecipientEmail)
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid %s '%s', using default %d", key, v, def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Invalid %s '%s', using default %t", key, v, def)
		return def
	}
	return b
}

// envDuration accepts Go durations ("1500ms") or whole seconds ("2").
func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid %s '%s', using default %s", key, v, def)
		return def
	}
	return d
}

// envList splits a comma-separated value, dropping blanks.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
