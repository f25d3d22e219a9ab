package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/erazemk/najdeno/internal/client"
	"github.com/erazemk/najdeno/internal/config"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/feed"
	"github.com/erazemk/najdeno/internal/kv"
	"github.com/erazemk/najdeno/internal/logging"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/service"
	"github.com/erazemk/najdeno/internal/session"
	"github.com/erazemk/najdeno/internal/tokenstore"
)

// app holds the components shared by all commands.
type app struct {
	cfg     *config.Config
	api     *client.Client
	session *session.Manager
	feed    *feed.Controller
	prefs   *feed.Prefs
	service *service.Service

	db       *sql.DB
	closeLog func()
}

func newApp() (*app, error) {
	cfg, err := config.Resolve(opts)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	closeLog, err := logging.Setup(logging.Options{Level: level, Stdout: os.Stderr, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, closeLog: closeLog}

	var store kv.KV
	if cfg.Ephemeral {
		store = kv.NewMemory()
	} else {
		database, err := openState(cfg.StatePath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.db = database
		store = kv.NewSQLite(database)
	}

	a.api = client.New(cfg.APIURL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		client.WithUserAgent("najdeno/"+version),
	)
	a.session = session.New(a.api, tokenstore.New(store), model.Credentials{
		Username: cfg.Username,
		Password: cfg.Password,
	})
	a.feed = feed.NewController(a.api)
	a.prefs = &feed.Prefs{KV: store}
	a.service = service.New(a.api, a.session, a.feed)

	slog.Debug("client ready", "api", cfg.APIURL, "state", cfg.StatePath, "ephemeral", cfg.Ephemeral)
	return a, nil
}

func openState(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureLocalSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("preparing state database: %w", err)
	}
	return database, nil
}

// Close releases the state database and the log file.
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.closeLog != nil {
		a.closeLog()
	}
}
