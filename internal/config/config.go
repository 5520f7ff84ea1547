package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/brandon/mailnav/internal/credential"
)

// Notification policies
const (
	PolicyFavorites = "favorites"
	PolicyAllowList = "allowlist"
)

// Config holds the application configuration
type Config struct {
	// Cache settings
	CachePath string
	LogLevel  string

	// Notifications
	NotifyPolicy    string
	NotifyFolders   []string
	NotifyIcon      string
	RaiseWindow     bool
	FavoriteFolders []string

	// Navigation
	ArchiveFolders   []string
	NavUnreadAware   bool
	NavCaseSensitive bool

	// Host round trips
	PollInterval  time.Duration
	QueryTimeout  time.Duration
	PageSize      int
	IMAPRateLimit int

	// Accounts
	Accounts []AccountConfig
}

// AccountConfig holds configuration for a single email account
type AccountConfig struct {
	Name string

	// IMAP settings
	IMAPHost     string
	IMAPPort     int
	IMAPUsername string
	IMAPPassword string
	IMAPTLS      bool
}

// LoadConfig loads configuration from environment variables, reading a
// .env file in the working directory first when one exists
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		CachePath:        getEnv("CACHE_PATH", "/data/mailnav.db"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		NotifyPolicy:     getEnv("NOTIFY_POLICY", PolicyFavorites),
		NotifyFolders:    getEnvList("NOTIFY_FOLDERS", []string{"/INBOX"}),
		NotifyIcon:       getEnv("NOTIFY_ICON", ""),
		RaiseWindow:      getEnvBool("RAISE_WINDOW", true),
		FavoriteFolders:  getEnvList("FAVORITE_FOLDERS", nil),
		ArchiveFolders:   getEnvList("ARCHIVE_FOLDERS", []string{"Archive", "Archives"}),
		NavUnreadAware:   getEnvBool("NAV_UNREAD_AWARE", false),
		NavCaseSensitive: getEnvBool("NAV_CASE_SENSITIVE", false),
		PollInterval:     getEnvDuration("POLL_INTERVAL", time.Minute),
		QueryTimeout:     getEnvDuration("QUERY_TIMEOUT", 30*time.Second),
		PageSize:         getEnvInt("PAGE_SIZE", 100),
		IMAPRateLimit:    getEnvInt("IMAP_RATE_LIMIT", 10),
	}

	// Load accounts
	accounts, err := loadAccounts()
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("no email accounts configured")
	}

	cfg.Accounts = accounts
	return cfg, nil
}

// loadAccounts loads email account configurations from environment variables
func loadAccounts() ([]AccountConfig, error) {
	var accounts []AccountConfig

	// Single account configuration
	if hasSingleAccount() {
		account, err := loadAccount("", "")
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
		return accounts, nil
	}

	// Load multiple accounts (ACCOUNT_1_*, ACCOUNT_2_*, etc.)
	for accountNum := 1; ; accountNum++ {
		prefix := fmt.Sprintf("ACCOUNT_%d_", accountNum)
		if getEnv(prefix+"NAME", "") == "" {
			break // No more accounts
		}
		account, err := loadAccount(prefix, fmt.Sprintf("account %d: ", accountNum))
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts found in environment variables")
	}

	return accounts, nil
}

// hasSingleAccount checks if single account configuration exists
func hasSingleAccount() bool {
	return getEnv("IMAP_HOST", "") != ""
}

// loadAccount loads one account from variables sharing a prefix
func loadAccount(prefix, errPrefix string) (*AccountConfig, error) {
	imapHost := getEnv(prefix+"IMAP_HOST", "")
	imapPort := getEnvInt(prefix+"IMAP_PORT", 993)
	imapUsername := getEnv(prefix+"IMAP_USERNAME", "")
	imapPassword := getEnv(prefix+"IMAP_PASSWORD", "")
	imapTLS := getEnvBool(prefix+"IMAP_TLS", true)

	if imapHost == "" {
		return nil, fmt.Errorf("%sIMAP_HOST is required", errPrefix)
	}

	if imapUsername == "" {
		return nil, fmt.Errorf("%sIMAP_USERNAME is required", errPrefix)
	}

	if imapPassword == "" {
		return nil, fmt.Errorf("%sIMAP_PASSWORD is required", errPrefix)
	}

	password, err := credential.Resolve(imapPassword)
	if err != nil {
		return nil, fmt.Errorf("%sIMAP_PASSWORD: %w", errPrefix, err)
	}

	name := getEnv(prefix+"NAME", "")
	if prefix == "" {
		name = getEnv("ACCOUNT_NAME", "default")
	}
	if name == "" {
		name = "default"
	}

	return &AccountConfig{
		Name:         name,
		IMAPHost:     imapHost,
		IMAPPort:     imapPort,
		IMAPUsername: imapUsername,
		IMAPPassword: password,
		IMAPTLS:      imapTLS,
	}, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// GetAccountByName finds an account by name
func (c *Config) GetAccountByName(name string) (*AccountConfig, error) {
	for i := range c.Accounts {
		if c.Accounts[i].Name == name {
			return &c.Accounts[i], nil
		}
	}
	return nil, fmt.Errorf("account not found: %s", name)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.CachePath == "" {
		return fmt.Errorf("CACHE_PATH is required")
	}

	if c.NotifyPolicy != PolicyFavorites && c.NotifyPolicy != PolicyAllowList {
		return fmt.Errorf("NOTIFY_POLICY must be %q or %q", PolicyFavorites, PolicyAllowList)
	}

	if c.PageSize < 1 || c.PageSize > 1000 {
		return fmt.Errorf("PAGE_SIZE must be between 1 and 1000")
	}

	if c.PollInterval < time.Second {
		return fmt.Errorf("POLL_INTERVAL must be at least 1s")
	}

	if c.QueryTimeout <= 0 {
		return fmt.Errorf("QUERY_TIMEOUT must be positive")
	}

	if c.IMAPRateLimit < 1 {
		return fmt.Errorf("IMAP_RATE_LIMIT must be at least 1")
	}

	if len(c.Accounts) == 0 {
		return fmt.Errorf("at least one account must be configured")
	}

	// "<account>:<path>" entries must name a configured account
	for _, entry := range c.FavoriteFolders {
		if account, path, ok := strings.Cut(entry, ":"); ok && strings.HasPrefix(path, "/") {
			if _, err := c.GetAccountByName(account); err != nil {
				return fmt.Errorf("FAVORITE_FOLDERS entry %q: %w", entry, err)
			}
		}
	}

	// Validate each account
	seen := make(map[string]bool, len(c.Accounts))
	for i := range c.Accounts {
		acc := &c.Accounts[i]
		if seen[acc.Name] {
			return fmt.Errorf("account %s: duplicate account name", acc.Name)
		}
		seen[acc.Name] = true
		if acc.IMAPHost == "" {
			return fmt.Errorf("account %s: IMAP_HOST is required", acc.Name)
		}
		if acc.IMAPPort < 1 || acc.IMAPPort > 65535 {
			return fmt.Errorf("account %s: invalid IMAP_PORT", acc.Name)
		}
	}

	return nil
}

// AccountNames returns a list of all account names
func (c *Config) AccountNames() []string {
	names := make([]string, len(c.Accounts))
	for i := range c.Accounts {
		names[i] = c.Accounts[i].Name
	}
	return names
}
