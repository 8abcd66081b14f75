package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/brewbeat/baristabot/internal/bot"
	"github.com/brewbeat/baristabot/internal/lockfile"
	"github.com/brewbeat/baristabot/internal/messaging"
	"github.com/brewbeat/baristabot/internal/ops"
	"github.com/brewbeat/baristabot/internal/store"
	"github.com/brewbeat/baristabot/internal/telegram"
	"github.com/brewbeat/baristabot/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for baristabot state data
	DefaultStateDir = "/var/lib/baristabot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "baristabot.db"
)

func main() {
	config := loadEnvironmentConfig()
	initializeLogger(config.LogLevel)
	flags := parseCommandLineFlags(config)

	if *flags.token == "" {
		slog.Error("BOT_TOKEN is required")
		os.Exit(1)
	}

	// One bot per state directory; two pollers on the same token would
	// steal each other's updates.
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	st, err := openStore(flags)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	tgOpts := []telegram.Option{telegram.WithToken(*flags.token)}
	if *flags.dropPending {
		tgOpts = append(tgOpts, telegram.WithDropPendingUpdates())
	}
	client, err := telegram.NewClient(tgOpts...)
	if err != nil {
		slog.Error("Failed to create Telegram client", "error", err)
		os.Exit(1)
	}
	svc := messaging.NewTelegramService(client)

	b := bot.New(svc, st,
		bot.WithAdminIDs(util.ParseIDSet(*flags.adminIDs)),
		bot.WithVersion(*flags.version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opsSrv *ops.Server
	if *flags.opsAddr != "" {
		opsSrv = ops.NewServer(st, b.UndoCoordinator(),
			ops.WithAddr(*flags.opsAddr),
			ops.WithVersion(*flags.version),
		)
		opsSrv.Start()
	}

	slog.Info("Bootstrapping baristabot", "driver", store.DetectDSNType(*flags.dbDSN), "ops_addr", *flags.opsAddr, "version", *flags.version)
	if err := b.Run(ctx); err != nil {
		slog.Error("baristabot failed to run", "error", err)
		os.Exit(1)
	}

	svc.Stop()
	if opsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := opsSrv.Stop(shutdownCtx); err != nil {
			slog.Warn("Ops server shutdown failed", "error", err)
		}
		cancel()
	}
	slog.Info("baristabot exited successfully")
}

// Config holds environment configuration
type Config struct {
	Token       string
	DbDriver    string
	DatabaseURL string
	StateDir    string
	AdminIDs    string
	LogLevel    string
	OpsAddr     string
	Version     string
	DropPending bool
}

// Flags holds command line flag values
type Flags struct {
	token       *string
	stateDir    *string
	dbDriver    *string
	dbDSN       *string
	adminIDs    *string
	opsAddr     *string
	version     *string
	dropPending *bool
}

// initializeLogger sets up structured logging at the configured level.
func initializeLogger(level string) {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	config := Config{
		Token:       os.Getenv("BOT_TOKEN"),
		DbDriver:    os.Getenv("DB_DRIVER"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("BARISTABOT_STATE_DIR"),
		AdminIDs:    os.Getenv("ADMIN_IDS"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		OpsAddr:     os.Getenv("OPS_ADDR"),
		Version:     os.Getenv("BOT_VERSION"),
		DropPending: util.ParseBoolEnv("DROP_PENDING_UPDATES", false),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
	}
	if config.Version == "" {
		config.Version = "dev"
	}
	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	dsn := config.DatabaseURL
	if dsn == "" {
		dsn = filepath.Join(config.StateDir, DefaultDBFileName)
	}

	flags := Flags{
		token:       flag.String("token", config.Token, "Telegram bot token (overrides $BOT_TOKEN)"),
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for baristabot data (overrides $BARISTABOT_STATE_DIR)"),
		dbDriver:    flag.String("db-driver", config.DbDriver, "database driver, sqlite or postgres (overrides $DB_DRIVER)"),
		dbDSN:       flag.String("db-dsn", dsn, "database DSN (overrides $DATABASE_URL)"),
		adminIDs:    flag.String("admin-ids", config.AdminIDs, "comma-separated admin user ids (overrides $ADMIN_IDS)"),
		opsAddr:     flag.String("ops-addr", config.OpsAddr, "ops HTTP listen address, empty disables (overrides $OPS_ADDR)"),
		version:     flag.String("version", config.Version, "version string reported by health (overrides $BOT_VERSION)"),
		dropPending: flag.Bool("drop-pending-updates", config.DropPending, "discard updates queued while the bot was down (overrides $DROP_PENDING_UPDATES)"),
	}
	flag.Parse()

	// A changed state dir moves the default SQLite path along with it.
	if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
	}

	slog.Debug("flags parsed",
		"token_set", *flags.token != "",
		"stateDir", *flags.stateDir,
		"dbDriver", *flags.dbDriver,
		"dbDSN_set", *flags.dbDSN != "",
		"adminIDs_set", *flags.adminIDs != "",
		"opsAddr", *flags.opsAddr,
		"dropPending", *flags.dropPending)
	return flags
}

// openStore picks the backend from the driver flag or the DSN shape.
func openStore(flags Flags) (store.Store, error) {
	driver := *flags.dbDriver
	if driver == "" {
		driver = store.DetectDSNType(*flags.dbDSN)
	}
	if driver == "postgres" {
		slog.Debug("Configuring PostgreSQL store", "dsn_set", *flags.dbDSN != "")
		return store.NewPostgresStore(store.WithDSN(*flags.dbDSN))
	}
	slog.Debug("Configuring SQLite store", "db_path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithDSN(*flags.dbDSN))
}
