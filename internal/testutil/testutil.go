// Package testutil builds a fully wired application backed by a private
// in-memory SQLite database, for HTTP-level tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/expenses-api/internal/config"
	"github.com/deppfellow/expenses-api/internal/handler"
	"github.com/deppfellow/expenses-api/internal/repository"
	"github.com/deppfellow/expenses-api/internal/router"
	"github.com/deppfellow/expenses-api/internal/server"
	"github.com/deppfellow/expenses-api/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// App is a migrated server and the router serving it.
type App struct {
	Server *server.Server
	Router *echo.Echo
}

// TestConfig returns the default configuration pointed at an in-memory
// SQLite database.
func TestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Primary.Env = "test"
	cfg.Database.URL = "sqlite://:memory:"
	cfg.Observability.Environment = "test"
	return cfg
}

// NewApp starts an App from cfg (TestConfig when nil). The database is
// closed when the test ends.
func NewApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()

	if cfg == nil {
		cfg = TestConfig()
	}

	logger := zerolog.Nop()

	srv, err := server.New(cfg, &logger, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = srv.DB.Close()
	})

	require.NoError(t, srv.DB.Migrate(context.Background()))

	repos := repository.NewRepositories(srv)
	services, err := service.NewServices(srv, repos)
	require.NoError(t, err)

	handlers := handler.NewHandlers(srv, services)

	return &App{
		Server: srv,
		Router: router.NewRouter(srv, handlers),
	}
}

// Do sends a request through the router. A non-nil body is JSON encoded
// unless it already is a string.
func (a *App) Do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		var err error
		payload, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	if payload != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	return rec
}

// Decode unmarshals a JSON response body into T.
func Decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code     string `json:"code"`
	Detail   string `json:"detail"`
	Status   int    `json:"status"`
	Override bool   `json:"override"`
	Errors   []struct {
		Field string `json:"field"`
		Error string `json:"error"`
	} `json:"errors"`
}
