package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// AuthHandler handles the register and login endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
}

// readCredentials accepts a JSON body or form values.
func readCredentials(r *http.Request) (model.Credentials, error) {
	var creds model.Credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := decodeJSON(r, &creds)
		return creds, err
	}
	creds.Username = r.FormValue("username")
	creds.Password = r.FormValue("password")
	return creds, nil
}

// Register handles POST /api/items/register/.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		jsonDetail(w, http.StatusBadRequest, "JSON parse error.")
		return
	}

	if creds.Username == "" || creds.Password == "" {
		jsonDetail(w, http.StatusBadRequest, "Username and password required.")
		return
	}

	existing, err := store.GetUserByUsername(r.Context(), h.DB, creds.Username)
	if err != nil {
		jsonDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if existing != nil {
		jsonDetail(w, http.StatusBadRequest, "Username already taken.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, creds.Username, string(hash), false)
	if errors.Is(err, store.ErrUsernameTaken) {
		jsonDetail(w, http.StatusBadRequest, "Username already taken.")
		return
	}
	if err != nil {
		slog.Error("creating user", "error", err)
		jsonDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	slog.Info("user registered", "user", user.Username)
	h.issueToken(w, user)
}

// Login handles POST /api/items/login/.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		jsonDetail(w, http.StatusBadRequest, "JSON parse error.")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), h.DB, creds.Username)
	if err != nil {
		jsonDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	if user == nil || creds.Password == "" {
		slog.Warn("login failed", "username", creds.Username, "remote", r.RemoteAddr)
		jsonDetail(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		slog.Warn("login failed", "username", creds.Username, "remote", r.RemoteAddr)
		jsonDetail(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	slog.Info("user logged in", "user", user.Username, "staff", user.Staff)
	h.issueToken(w, user)
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, user *model.User) {
	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.Username, user.Staff)
	if err != nil {
		slog.Error("generating token", "error", err)
		jsonDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	jsonResponse(w, http.StatusOK, model.AuthResponse{Token: token})
}
