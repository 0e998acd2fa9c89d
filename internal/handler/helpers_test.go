package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jitendraK4121/letter-monitoring-system/internal/config"
	"github.com/jitendraK4121/letter-monitoring-system/internal/handler"
	"github.com/jitendraK4121/letter-monitoring-system/internal/repository"
	"github.com/jitendraK4121/letter-monitoring-system/internal/testutil"
)

// env wires handlers against an in-memory database, bypassing the JWT
// middleware: tests inject identity directly the way JWTAuth would.
type env struct {
	cfg     config.Config
	users   *repository.UserRepo
	letters *repository.LetterRepo
	auth    *handler.AuthHandler
	user    *handler.UserHandler
	letter  *handler.LetterHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := config.Config{
		JWTSecret:    "test-secret",
		AccessTTLHrs: 24,
		BcryptCost:   bcrypt.MinCost,
	}
	users := repository.NewUserRepo(db)
	letters := repository.NewLetterRepo(db)
	return &env{
		cfg:     cfg,
		users:   users,
		letters: letters,
		auth:    handler.NewAuthHandler(cfg, users),
		user:    handler.NewUserHandler(cfg, users),
		letter:  handler.NewLetterHandler(cfg, letters, users),
	}
}

func (e *env) seedUser(t *testing.T, username, role string) uint64 {
	t.Helper()
	id, err := e.users.Create(t.Context(), repository.NewUserParams{
		Username: username,
		Password: username + "-pass",
		Name:     username,
		Role:     role,
	}, bcrypt.MinCost)
	require.NoError(t, err)
	return id
}

// ident is the authenticated caller; nil means an anonymous request.
type ident struct {
	id   uint64
	role string
}

// invoke runs one handler with an optional JSON body, identity and path
// params, and returns the recorder plus the decoded JSON response.
func invoke(t *testing.T, h echo.HandlerFunc, method, target string, body any, who *ident, params map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()

	c := echo.New().NewContext(req, rec)
	if who != nil {
		// JWT numeric claims arrive as float64; mirror that here.
		c.Set("user_id", float64(who.id))
		c.Set("role", who.role)
	}
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		values := make([]string, 0, len(params))
		for k, v := range params {
			names = append(names, k)
			values = append(values, v)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}

	require.NoError(t, h(c))

	var resp map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

// data unwraps the success envelope.
func data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	d, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", resp)
	return d
}

func asObject(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	require.True(t, ok, "expected JSON object, got %T", v)
	return m
}

func asArray(t *testing.T, v any) []any {
	t.Helper()
	a, ok := v.([]any)
	require.True(t, ok, "expected JSON array, got %T", v)
	return a
}
