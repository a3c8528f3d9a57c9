package config

import (
	"bostad-scraper/parser"
	apperrors "bostad-scraper/pkg/errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Site       string
	IndexURL   string
	PageURL    string
	PageParam  string
	Headless   bool
	UserAgent  string
	MaxRetries int

	PaginationSelector string
	ContentSelector    string
	PaginationTimeout  time.Duration
	ContentTimeout     time.Duration
	NavigationTimeout  time.Duration
	RetryBackoff       time.Duration
	MinDelay           time.Duration
	MaxDelay           time.Duration

	RawDir       string
	ProcessedDir string

	SelectorsFile string
	Locators      parser.Locators
	KnownAreas    []string
	ReportLimit   int

	DatabaseURL string
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	RedisAddr         string
	RedisDB           int
	RedisStream       string
	RedisStreamMaxLen int
}

func DefaultConfig() *Config {
	return &Config{
		Site:               "blocket",
		IndexURL:           "https://bostad.blocket.se/p2/sv/find-home/?page=1",
		PageURL:            "https://bostad.blocket.se/p2/sv/find-home/?page=1&sort=PUBLISHED_DESC",
		PageParam:          "page",
		Headless:           true,
		MaxRetries:         2,
		PaginationSelector: "a.qds-nyr6q5",
		ContentSelector:    "a.qds-6d0zjo",
		PaginationTimeout:  10 * time.Second,
		ContentTimeout:     20 * time.Second,
		NavigationTimeout:  60 * time.Second,
		RetryBackoff:       2 * time.Second,
		MinDelay:           1 * time.Second,
		MaxDelay:           3 * time.Second,
		RawDir:             "data/raw",
		ProcessedDir:       "data/processed",
		SelectorsFile:      "configs/selectors.yaml",
		Locators:           parser.DefaultLocators(),
		KnownAreas:         []string{"Stockholm", "Bromma", "Spånga", "Enskede", "Kista"},
		ReportLimit:        5,
		DBHost:             "localhost",
		DBPort:             5432,
		DBUser:             "postgres",
		DBPassword:         "postgres",
		DBName:             "bostad",
		DBSSLMode:          "disable",
		RedisStream:        "bostad:listings",
		RedisStreamMaxLen:  10000,
	}
}

// LoadConfig overlays the selectors file (if present) and environment
// variables on DefaultConfig. Environment variables win.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	cfg.Site = getEnv("SCRAPER_SITE", cfg.Site)
	cfg.IndexURL = getEnv("SCRAPER_INDEX_URL", cfg.IndexURL)
	cfg.PageURL = getEnv("SCRAPER_PAGE_URL", cfg.PageURL)
	cfg.PageParam = getEnv("SCRAPER_PAGE_PARAM", cfg.PageParam)
	cfg.Headless = getEnvBool("SCRAPER_HEADLESS", cfg.Headless)
	cfg.UserAgent = getEnv("SCRAPER_USER_AGENT", cfg.UserAgent)
	cfg.MaxRetries = getEnvInt("SCRAPER_MAX_RETRIES", cfg.MaxRetries)
	cfg.PaginationTimeout = getEnvDuration("SCRAPER_PAGINATION_TIMEOUT", cfg.PaginationTimeout)
	cfg.ContentTimeout = getEnvDuration("SCRAPER_CONTENT_TIMEOUT", cfg.ContentTimeout)
	cfg.NavigationTimeout = getEnvDuration("SCRAPER_NAVIGATION_TIMEOUT", cfg.NavigationTimeout)
	cfg.RetryBackoff = getEnvDuration("SCRAPER_RETRY_BACKOFF", cfg.RetryBackoff)
	cfg.MinDelay = getEnvDuration("SCRAPER_MIN_DELAY", cfg.MinDelay)
	cfg.MaxDelay = getEnvDuration("SCRAPER_MAX_DELAY", cfg.MaxDelay)
	cfg.RawDir = getEnv("RAW_DATA_DIR", cfg.RawDir)
	cfg.ProcessedDir = getEnv("PROCESSED_DATA_DIR", cfg.ProcessedDir)
	cfg.SelectorsFile = getEnv("SELECTORS_FILE", cfg.SelectorsFile)
	cfg.KnownAreas = getEnvList("KNOWN_AREAS", cfg.KnownAreas)
	cfg.ReportLimit = getEnvInt("REPORT_LIMIT", cfg.ReportLimit)

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnvInt("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBSSLMode = getEnv("DB_SSLMODE", cfg.DBSSLMode)

	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)
	cfg.RedisStream = getEnv("REDIS_STREAM", cfg.RedisStream)
	cfg.RedisStreamMaxLen = getEnvInt("REDIS_STREAM_MAXLEN", cfg.RedisStreamMaxLen)

	if cfg.SelectorsFile != "" {
		if err := cfg.ApplySelectorsFile(cfg.SelectorsFile); err != nil && !os.IsNotExist(err) {
			return nil, apperrors.NewConfiguration("selectors file", err)
		}
	}
	cfg.PaginationSelector = getEnv("SCRAPER_PAGINATION_SELECTOR", cfg.PaginationSelector)
	cfg.ContentSelector = getEnv("SCRAPER_CONTENT_SELECTOR", cfg.ContentSelector)

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfiguration("invalid configuration", err)
	}
	return cfg, nil
}

// selectorsFile is the YAML layout of the selectors file.
type selectorsFile struct {
	Pagination string          `yaml:"pagination"`
	Content    string          `yaml:"content"`
	Listing    parser.Locators `yaml:"listing"`
}

// ApplySelectorsFile reads page and listing selectors from a YAML file.
// Missing keys keep their defaults.
func (c *Config) ApplySelectorsFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file selectorsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if file.Pagination != "" {
		c.PaginationSelector = file.Pagination
	}
	if file.Content != "" {
		c.ContentSelector = file.Content
	}
	c.Locators = file.Listing.Merge(parser.DefaultLocators())
	return nil
}

func (c *Config) Validate() error {
	if c.IndexURL == "" || c.PageURL == "" {
		return fmt.Errorf("index and page urls are required")
	}
	if c.PageParam == "" {
		return fmt.Errorf("page query parameter name is required")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	if c.MaxDelay < c.MinDelay {
		return fmt.Errorf("max delay %v is below min delay %v", c.MaxDelay, c.MinDelay)
	}
	if err := c.Locators.Validate(); err != nil {
		return fmt.Errorf("locators: %w", err)
	}
	return nil
}

// DSN returns DatabaseURL if set, otherwise a URL built from the DB fields.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvDuration accepts Go durations ("1500ms") or whole seconds ("20").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
