package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"

	"github.com/brandon/mailnav/internal/addon"
	"github.com/brandon/mailnav/internal/cache"
	"github.com/brandon/mailnav/internal/config"
	"github.com/brandon/mailnav/internal/credential"
	"github.com/brandon/mailnav/internal/desktop"
	"github.com/brandon/mailnav/internal/email"
	"github.com/brandon/mailnav/internal/host"
	"github.com/brandon/mailnav/internal/mcp"
	"github.com/brandon/mailnav/internal/navigator"
	"github.com/brandon/mailnav/internal/notifier"
	"github.com/brandon/mailnav/internal/tools"
)

var (
	version         = "dev"
	showVersion     = flag.Bool("version", false, "Show version information")
	storeCredential = flag.String("store-credential", "", "Read a secret from stdin and store it in the keyring under this key, then exit")
	cpuProfileFlag  = flag.Bool("profile-cpu", false, "Enable CPU profiling.")
	memProfileFlag  = flag.Bool("profile-mem", false, "Enable Memory profiling.")
	profilePathFlag = flag.String("profile-path", "", "Path where to write profile data.")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("mailnav version %s\n", version)
		os.Exit(0)
	}

	// Set up logging; stdout carries the JSON-RPC stream
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	if *storeCredential != "" {
		if err := saveCredential(*storeCredential); err != nil {
			logger.WithError(err).Fatal("Failed to store credential")
		}
		logger.WithField("key", *storeCredential).Info("Credential stored")
		os.Exit(0)
	}

	if *cpuProfileFlag {
		p := profile.Start(profile.CPUProfile, profile.ProfilePath(*profilePathFlag), profile.NoShutdownHook)
		defer p.Stop()
	}

	if *memProfileFlag {
		p := profile.Start(profile.MemProfile, profile.MemProfileAllocs, profile.ProfilePath(*profilePathFlag), profile.NoShutdownHook)
		defer p.Stop()
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	// Set log level
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.WithField("accounts", cfg.AccountNames()).Info("Starting mailnav")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize cache
	mailCache, err := cache.NewCache(cfg.CachePath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize cache")
	}
	defer mailCache.Close()

	cacheStore := cache.NewStore(mailCache, logger)

	// Initialize accounts in cache
	for i := range cfg.Accounts {
		if _, err := cacheStore.UpsertAccount(ctx, &cfg.Accounts[i]); err != nil {
			logger.WithError(err).WithField("account", cfg.Accounts[i].Name).Fatal("Failed to cache account")
		}
	}
	if err := cacheStore.SeedFavorites(ctx, cfg.AccountNames(), cfg.FavoriteFolders); err != nil {
		logger.WithError(err).Fatal("Failed to seed favorite folders")
	}

	// Host side: mail view, event bus, IMAP accounts, desktop
	view := host.NewView(logger)
	bus := host.NewBus(logger, cfg.QueryTimeout)

	emailManager, err := email.NewManager(cfg, cacheStore, view, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create email manager")
	}
	defer emailManager.Close()

	desk := desktop.New(logger)

	// Add-on side
	newMail := notifier.New(emailManager, emailManager, desk, desk, notifier.Options{
		Policy:      notifier.Policy(cfg.NotifyPolicy),
		AllowList:   cfg.NotifyFolders,
		Icon:        cfg.NotifyIcon,
		RaiseWindow: cfg.RaiseWindow,
	}, logger)
	ranker := navigator.NewRanker(emailManager, emailManager, view, navigator.Options{
		UnreadAware:   cfg.NavUnreadAware,
		CaseSensitive: cfg.NavCaseSensitive,
	}, logger)
	addon.Register(bus, newMail, ranker)

	watcher := email.NewWatcher(emailManager, cacheStore, bus, cfg.PollInterval, logger)
	go watcher.Run(ctx) //nolint:errcheck

	registry := tools.NewRegistry(emailManager, bus, view, logger)
	server := mcp.NewServer(registry, version, os.Stdin, os.Stdout, logger)

	// Run server in a goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run(ctx)
	}()

	// Wait for shutdown signal or the end of input
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-errChan:
		if err != nil {
			logger.WithError(err).Error("Server error")
		}
		cancel()
	}

	logger.Info("Shutting down mailnav")
}

// saveCredential stores the first line of stdin in the keyring
func saveCredential(key string) error {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("failed to read secret: %w", err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return fmt.Errorf("empty secret")
	}
	return credential.Set(key, secret)
}
