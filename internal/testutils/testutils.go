package testutils

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/matt-cal/main-st/internal/api/gateway"
	"github.com/matt-cal/main-st/internal/db"
	"github.com/matt-cal/main-st/internal/docstore"
	"github.com/matt-cal/main-st/internal/services/session"
	"github.com/matt-cal/main-st/internal/services/user"
	"github.com/matt-cal/main-st/pkg/config"
	"go.uber.org/zap/zaptest"
)

func GetTestConfig() config.Config {
	return config.Config{
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			BusyTimeout:  5 * time.Second,
		},
		Server: config.ServerConfig{
			Host:             "localhost",
			Port:             8080,
			CORSAllowOrigins: "*",
		},
		Session: config.SessionConfig{
			Secret:     "test-secret",
			Expiration: time.Hour,
			CookieName: "sid",
		},
		Log: config.LogConfig{
			Level:    "debug",
			Encoding: "console",
		},
	}
}

// SetupTestDB opens a migrated SQLite database in a temporary directory. A
// file is used rather than :memory: so the pool can hold several
// connections to the same database.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := GetTestConfig().Database
	cfg.Path = filepath.Join(t.TempDir(), "test.db")

	conn, dialect, err := db.OpenDB(cfg)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.RunMigrations(conn, dialect, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return conn
}

func SetupTestStore(t *testing.T) *docstore.Store {
	t.Helper()
	return docstore.NewStore(SetupTestDB(t), db.DialectSQLite)
}

func CreateTestUser(t *testing.T, store *docstore.Store, username, password string) string {
	t.Helper()
	svc := user.NewUserService(zaptest.NewLogger(t), store)
	u, err := svc.Create(context.Background(), username, password)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return u.ID
}

func CreateTestSession(t *testing.T, store *docstore.Store, userID string) string {
	t.Helper()
	cfg := GetTestConfig()
	svc := session.NewSessionService(cfg.Session, zaptest.NewLogger(t), store)
	state, err := svc.Start(context.Background(), userID, "127.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return state.Token
}

// Request sends an API request through app. body, if non-nil, is encoded as
// JSON; token, if set, is sent as a bearer token.
func Request(t *testing.T, app *fiber.App, method, path string, body any, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

func DecodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

// BlockDeletes installs a trigger that makes every DELETE on table fail.
func BlockDeletes(t *testing.T, store *docstore.Store, table string) {
	t.Helper()
	stmt := fmt.Sprintf(`CREATE TRIGGER block_%[1]s_delete BEFORE DELETE ON %[1]s
		BEGIN SELECT RAISE(ABORT, 'deletes on %[1]s are blocked'); END`, table)
	if _, err := store.DB().Exec(stmt); err != nil {
		t.Fatalf("Failed to block deletes on %s: %v", table, err)
	}
}

// SetupTestApp builds the full API gateway on a fresh database.
func SetupTestApp(t *testing.T) (*fiber.App, *docstore.Store) {
	t.Helper()
	store := SetupTestStore(t)
	gw := gateway.NewAPIGateway(GetTestConfig(), zaptest.NewLogger(t), store)
	return gw.Router(), store
}

// Signup creates a user through the API and logs them in, returning the
// session token.
func Signup(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()
	creds := map[string]string{"username": username, "password": password}
	resp := Request(t, app, http.MethodPost, "/api/users", creds, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201 creating %s, got %d", username, resp.StatusCode)
	}
	return Login(t, app, username, password)
}

func Login(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()
	creds := map[string]string{"username": username, "password": password}
	resp := Request(t, app, http.MethodPost, "/api/login", creds, "")
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("Expected status 200 logging in %s, got %d", username, resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	DecodeJSON(t, resp, &body)
	if body.Token == "" {
		t.Fatal("Missing token in login response")
	}
	return body.Token
}

// Msg decodes a {"msg": ...} response body.
func Msg(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Msg string `json:"msg"`
	}
	DecodeJSON(t, resp, &body)
	return body.Msg
}

// ExpectStatus fails the test unless resp has the wanted status. The body
// is consumed.
func ExpectStatus(t *testing.T, resp *http.Response, want int) string {
	t.Helper()
	msg := Msg(t, resp)
	if resp.StatusCode != want {
		t.Fatalf("Expected status %d, got %d (%s)", want, resp.StatusCode, msg)
	}
	return msg
}
