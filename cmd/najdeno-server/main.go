// Command najdeno-server runs the development lost & found backend.
package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/najdeno/internal/api"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/logging"
	"github.com/erazemk/najdeno/internal/store"
)

type serverConfig struct {
	dbPath    string
	addr      string
	adminUser string
	logPath   string
	mediaBase string
	pageSize  int
}

func parseFlags(args []string) (*serverConfig, error) {
	fs := flag.NewFlagSet("najdeno-server", flag.ContinueOnError)
	cfg := &serverConfig{}

	fs.StringVar(&cfg.dbPath, "db", "najdeno.sqlite3", "")
	fs.StringVar(&cfg.dbPath, "d", "najdeno.sqlite3", "")

	fs.StringVar(&cfg.addr, "addr", ":8000", "")
	fs.StringVar(&cfg.addr, "a", ":8000", "")

	fs.StringVar(&cfg.adminUser, "user", "admin", "")
	fs.StringVar(&cfg.adminUser, "u", "admin", "")

	fs.StringVar(&cfg.logPath, "log", "", "")
	fs.StringVar(&cfg.logPath, "l", "", "")

	fs.StringVar(&cfg.mediaBase, "media-base", api.DefaultMediaBase, "")
	fs.StringVar(&cfg.mediaBase, "m", api.DefaultMediaBase, "")

	fs.IntVar(&cfg.pageSize, "page-size", api.DefaultPageSize, "")
	fs.IntVar(&cfg.pageSize, "p", api.DefaultPageSize, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: najdeno-server [flags]

Flags:
  -d, -db <path>           SQLite database path (default: najdeno.sqlite3)
  -a, -addr <host:port>    listen address (default: :8000)
  -u, -user <name>         staff username on first run (default: admin)
  -l, -log <path>          log file path (default: no file, stdout/stderr only)
  -m, -media-base <url>    prefix of item image URLs (default: /media)
  -p, -page-size <n>       items per list page (default: 10)
  -h, -help                show this help and exit
`)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if cfg.pageSize < 1 {
		return nil, fmt.Errorf("page size must be positive, got %d", cfg.pageSize)
	}
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// INFO/WARN go to stdout, ERROR to stderr, everything to the log file if set.
	closeLog, err := logging.Setup(logging.Options{Level: slog.LevelInfo, File: cfg.logPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if _, err := os.Stat(cfg.dbPath); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg.dbPath, cfg.adminUser)
		if err != nil {
			slog.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		database.Close()

		printInitResult(cfg.dbPath, cfg.adminUser, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if n, err := store.CountStaff(ctx, database); err != nil {
		slog.Error("failed to count staff accounts", "error", err)
		os.Exit(1)
	} else if n == 0 {
		slog.Warn("no staff account; claimed status cannot be changed", "path", cfg.dbPath)
	}

	slog.Info("database ready", "path", cfg.dbPath)

	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		os.Exit(1)
	}

	router := api.NewRouter(database, jwtSecret, api.Options{
		PageSize:  cfg.pageSize,
		MediaBase: cfg.mediaBase,
	})

	server := &http.Server{
		Addr:              cfg.addr,
		Handler:           api.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.addr, "page_size", cfg.pageSize, "media_base", cfg.mediaBase)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// initDatabase creates a new database with the schema and a staff account.
func initDatabase(path, staffUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, string, error) {
		database.Close()
		os.Remove(path)
		return nil, "", err
	}

	if err := db.EnsureSchema(database); err != nil {
		return fail(fmt.Errorf("ensuring schema: %w", err))
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fail(fmt.Errorf("hashing password: %w", err))
	}

	if _, err := store.CreateUser(context.Background(), database, staffUsername, string(hash), true); err != nil {
		return fail(fmt.Errorf("creating staff user: %w", err))
	}

	return database, password, nil
}

func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println()
	fmt.Println("Staff account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it is shown only once.")
	fmt.Println("Sign in with it to mark items as claimed.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
