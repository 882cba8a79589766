package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type R2 struct {
	AccountID     string
	AccessKey     string
	SecretKey     string
	BucketName    string
	PublicBaseURL string
}

type Config struct {
	Environment string
	LogLevel    string
	HTTPAddr    string

	BusinessTimezone string
	TickInterval     time.Duration
	TickTimeout      time.Duration
	// ReminderOffsets maps reminder type to how long before course start it
	// fires, e.g. "course_start_24h:24h,course_start_1h:1h".
	ReminderOffsets    map[string]time.Duration
	PublishConcurrency int

	GoogleCredentialsFile string
	SpreadsheetID         string
	SheetName             string

	MetaAccessToken string
	// MetaAccessTokenEncrypted, when set, is decrypted with SecretKey at
	// startup and takes precedence over MetaAccessToken.
	MetaAccessTokenEncrypted string
	FacebookPageID           string
	InstagramAccountID       string

	TelegramToken string
	AdminChatIDs  []int64

	PostgresURI string
	RedisURI    string
	R2          R2
	SecretKey   string
}

func LoadConfig() (*Config, error) {
	tickInterval, err := getEnvDuration("TICK_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	tickTimeout, err := getEnvDuration("TICK_TIMEOUT", 4*time.Minute)
	if err != nil {
		return nil, err
	}
	offsets, err := parseReminderOffsets(getEnv("REMINDER_OFFSETS", "course_start_24h:24h,course_start_1h:1h"))
	if err != nil {
		return nil, err
	}
	concurrency, err := getEnvInt("PUBLISH_CONCURRENCY", 10)
	if err != nil {
		return nil, err
	}
	adminChatIDs, err := parseChatIDs(getEnv("ADMIN_CHAT_IDS", ""))
	if err != nil {
		return nil, err
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),

		BusinessTimezone:   getEnv("BUSINESS_TIMEZONE", "Asia/Damascus"),
		TickInterval:       tickInterval,
		TickTimeout:        tickTimeout,
		ReminderOffsets:    offsets,
		PublishConcurrency: concurrency,

		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		SpreadsheetID:         getEnv("SPREADSHEET_ID", ""),
		SheetName:             getEnv("SHEET_NAME", "Posts"),

		MetaAccessToken:          getEnv("META_ACCESS_TOKEN", ""),
		MetaAccessTokenEncrypted: getEnv("META_ACCESS_TOKEN_ENCRYPTED", ""),
		FacebookPageID:           getEnv("FACEBOOK_PAGE_ID", ""),
		InstagramAccountID:       getEnv("INSTAGRAM_ACCOUNT_ID", ""),

		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),
		AdminChatIDs:  adminChatIDs,

		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", "127.0.0.1:6379"),
		R2: R2{
			AccountID:     getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:     getEnv("R2_ACCESS_KEY", ""),
			SecretKey:     getEnv("R2_SECRET_KEY", ""),
			BucketName:    getEnv("R2_BUCKET_NAME", ""),
			PublicBaseURL: getEnv("R2_PUBLIC_BASE_URL", ""),
		},
		SecretKey: getEnv("SECRET_KEY", ""),
	}, nil
}

// parseReminderOffsets parses "type:duration" pairs separated by commas.
func parseReminderOffsets(raw string) (map[string]time.Duration, error) {
	offsets := make(map[string]time.Duration)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, found := strings.Cut(pair, ":")
		if !found {
			return nil, fmt.Errorf("invalid reminder offset %q, want type:duration", pair)
		}
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid reminder offset %q: %w", pair, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid reminder offset %q: duration must be positive", pair)
		}
		offsets[strings.TrimSpace(name)] = d
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("no reminder offsets configured")
	}
	return offsets, nil
}

func parseChatIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin chat id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
