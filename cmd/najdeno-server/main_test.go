package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/najdeno/internal/api"
	"github.com/erazemk/najdeno/internal/store"
)

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.addr != ":8000" || cfg.dbPath != "najdeno.sqlite3" || cfg.adminUser != "admin" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.pageSize != api.DefaultPageSize || cfg.mediaBase != api.DefaultMediaBase {
		t.Errorf("unexpected API defaults: %+v", cfg)
	}

	cfg, err = parseFlags([]string{"-a", "127.0.0.1:9000", "-page-size", "25", "-m", "https://cdn.example.com/media"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.addr != "127.0.0.1:9000" || cfg.pageSize != 25 || cfg.mediaBase != "https://cdn.example.com/media" {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	tests := [][]string{
		{"-page-size", "0"},
		{"extra"},
		{"-unknown"},
	}
	for _, args := range tests {
		if _, err := parseFlags(args); err == nil {
			t.Errorf("parseFlags(%v): expected error", args)
		}
	}
}

func TestInitDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "najdeno.sqlite3")

	database, password, err := initDatabase(path, "staff")
	if err != nil {
		t.Fatalf("initDatabase: %v", err)
	}
	defer database.Close()

	if len(password) != 16 {
		t.Errorf("expected 16 character password, got %d", len(password))
	}

	user, err := store.GetUserByUsername(context.Background(), database, "staff")
	if err != nil || user == nil {
		t.Fatalf("expected staff user, got %v (%v)", user, err)
	}
	if !user.Staff {
		t.Error("expected bootstrap user to be staff")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		t.Error("password does not match stored hash")
	}
}

func TestGeneratePassword(t *testing.T) {
	a, err := generatePassword(24)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := generatePassword(24)
	if len(a) != 24 || a == b {
		t.Errorf("expected distinct 24 character passwords, got %q and %q", a, b)
	}
	if strings.ContainsAny(a, "0O1lI") {
		t.Errorf("password contains ambiguous characters: %q", a)
	}
}
