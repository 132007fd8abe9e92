package config

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_MissingFileIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	LoadEnv("test")
}

func TestLoadEnv_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CHECKIN_TEST_VALUE=from-dotenv\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	t.Cleanup(func() { os.Unsetenv("CHECKIN_TEST_VALUE") })

	LoadEnv("test")
	assert.Equal(t, "from-dotenv", os.Getenv("CHECKIN_TEST_VALUE"))
}

func TestCreateUniqueInstance(t *testing.T) {
	a := CreateUniqueInstance("test")
	b := CreateUniqueInstance("test")

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, b, GetInstanceId())
}

func TestCORS_PreflightPassesThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(CORS().Handler)
	r.Options("/checkins", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	})

	req := httptest.NewRequest(http.MethodOptions, "/checkins", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"ok":true}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

func TestCustomLoggerMiddleware_KeepsStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(CustomLoggerMiddleware())
	r.Get("/teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestLogging_WritesToLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	t.Setenv("LOG_DIR", dir)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	Logging("unit")

	_, err := os.Stat(filepath.Join(dir, "unit.log"))
	assert.NoError(t, err)
}
