package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/connect-four-arena/game/config"
	"github.com/wricardo/connect-four-arena/game/service"
	"github.com/wricardo/connect-four-arena/transport/mcp"
)

// parseSettings runs loadSettings behind the real flag set
func parseSettings(t *testing.T, args ...string) (*config.Settings, error) {
	t.Helper()

	var settings *config.Settings
	cmd := &cli.Command{
		Name:  "test",
		Flags: settingsFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var err error
			settings, err = loadSettings(cmd)
			return err
		},
	}
	err := cmd.Run(context.Background(), append([]string{"test"}, args...))
	return settings, err
}

func TestLoadSettings_Defaults(t *testing.T) {
	settings, err := parseSettings(t)
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), settings)
}

func TestLoadSettings_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": 9000, "bot_depth": 6, "fallback_delay": "5s"}`), 0o644))

	settings, err := parseSettings(t, "--config", path, "--port", "9191", "--redis-addr", "localhost:6379", "--debug")
	require.NoError(t, err)

	assert.Equal(t, 9191, settings.Port)
	assert.Equal(t, 6, settings.BotDepth)
	assert.Equal(t, "5s", settings.FallbackDelay.Std().String())
	assert.Equal(t, "localhost:6379", settings.RedisAddr)
	assert.True(t, settings.Debug)
}

func TestLoadSettings_Invalid(t *testing.T) {
	_, err := parseSettings(t, "--port", "70000")
	assert.ErrorIs(t, err, config.ErrInvalidSettings)

	_, err = parseSettings(t, "--config", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out

	require.NoError(t, cmd.Run(context.Background(), []string{"connect-four-arena", "version"}))
	assert.Equal(t, AppName+" v"+Version+"\n", out.String())
}

func TestNewApp_WithoutRedis(t *testing.T) {
	a, err := newApp(config.Defaults(), zap.NewNop())
	require.NoError(t, err)
	defer a.close()

	assert.Nil(t, a.redis)

	_, err = a.service.GetStats(context.Background())
	assert.ErrorIs(t, err, service.ErrStatsUnavailable)
}

func TestNewApp_UnreachableRedisDisablesStats(t *testing.T) {
	settings := config.Defaults()
	settings.RedisAddr = "127.0.0.1:1"

	a, err := newApp(settings, zap.NewNop())
	require.NoError(t, err)
	defer a.close()

	assert.Nil(t, a.redis)
	assert.False(t, a.service.Health(context.Background()).StatsEnabled)
}

func TestApp_Handler(t *testing.T) {
	mr := miniredis.RunT(t)

	settings := config.Defaults()
	settings.RedisAddr = mr.Addr()

	a, err := newApp(settings, zap.NewNop())
	require.NoError(t, err)
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.start(ctx)

	srv := httptest.NewServer(a.handler(mcp.NewClient("http://unused")))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health service.HealthInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.True(t, health.StatsEnabled)

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}

func TestMCPHandler(t *testing.T) {
	handler := mcpHandler(mcp.NewClient("http://unused"), zap.NewNop())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "make_move")
	assert.Contains(t, rec.Body.String(), "leaderboard")
}

func TestLoopbackAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", loopbackAddr("0.0.0.0:8080"))
	assert.Equal(t, "127.0.0.1:8080", loopbackAddr(":8080"))
	assert.Equal(t, "example.com:80", loopbackAddr("example.com:80"))
}

func TestAPIAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.True(t, apiAvailable(srv.URL))

	srv.Close()
	assert.False(t, apiAvailable(srv.URL))
}
