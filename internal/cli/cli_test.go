package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/healthz":
			_, _ = w.Write([]byte("ok"))
		case "/api/studio/x/availability":
			_, _ = w.Write([]byte(`{"success":true,"availability":[{"date":"2025-06-01","unavailable":["14:00"]}]}`))
		case "/api/studio/x":
			_, _ = w.Write([]byte(`{"_id":"x","name":"Room A","bookingSettings":{"hourlyRate":6000,"minimumDuration":2}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	return writeConfigLevel(t, baseURL, "error")
}

func writeConfigLevel(t *testing.T, baseURL, level string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf("api:\n  base_url: %q\nlogging:\n  level: %s\n", baseURL, level)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCapture(t, args...)
	return out, err
}

func runCapture(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	// A nil slice would make cobra fall back to os.Args.
	cmd.SetArgs(append([]string{}, args...))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func TestSlotsCommand(t *testing.T) {
	srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL)

	out, err := run(t, "slots", "--config", cfgPath, "--studio", "x", "--date", "2025-06-01", "--start", "1300", "--end", "16:00")
	require.NoError(t, err)

	assert.Contains(t, out, "Room A on 2025-06-01: 6000/h, minimum 2h")
	assert.Contains(t, out, "selected_start")
	assert.Contains(t, out, "in_range (booked)")
	assert.Contains(t, out, "Warning: range includes booked slots 14:00")
	assert.Contains(t, out, "13:00 - 16:00")
	assert.Contains(t, out, "18000.00")
}

func TestSlotsCommand_FailOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	out, err := run(t, "slots", "--config", writeConfig(t, srv.URL), "--studio", "x", "--date", "2025-06-01")
	require.NoError(t, err)
	assert.Contains(t, out, "x on 2025-06-01: 5000/h, minimum 2h")
	assert.NotContains(t, out, "booked")
}

func TestSlotsCommand_HealthCheck(t *testing.T) {
	var healthHits atomic.Int32
	var unhealthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			healthHits.Add(1)
			if unhealthy.Load() {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		case "/api/studio/x/availability":
			_, _ = w.Write([]byte(`{"success":true,"availability":[]}`))
		default:
			_, _ = w.Write([]byte(`{"_id":"x","name":"Room A"}`))
		}
	}))
	defer srv.Close()
	cfgPath := writeConfigLevel(t, srv.URL, "warn")

	_, errOut, err := runCapture(t, "slots", "--config", cfgPath, "--studio", "x")
	require.NoError(t, err)
	assert.Equal(t, int32(1), healthHits.Load())
	assert.NotContains(t, errOut, "health check failed")

	unhealthy.Store(true)
	out, errOut, err := runCapture(t, "slots", "--config", cfgPath, "--studio", "x")
	require.NoError(t, err)
	assert.Equal(t, int32(2), healthHits.Load())
	assert.Contains(t, errOut, "studio backend health check failed")
	// The load still runs after a failed check.
	assert.Contains(t, out, "Room A on")
}

func TestSlotsCommand_InvalidFlags(t *testing.T) {
	srv := newBackend(t)
	cfgPath := writeConfig(t, srv.URL)

	tests := []struct {
		name string
		args []string
	}{
		{"missing studio", []string{"slots", "--config", cfgPath}},
		{"bad date", []string{"slots", "--config", cfgPath, "--studio", "x", "--date", "06/01/2025"}},
		{"bad start", []string{"slots", "--config", cfgPath, "--studio", "x", "--start", "noon"}},
		{"start outside hours", []string{"slots", "--config", cfgPath, "--studio", "x", "--start", "07:00"}},
		{"end without start", []string{"slots", "--config", cfgPath, "--studio", "x", "--end", "12:00"}},
		{"end too early", []string{"slots", "--config", cfgPath, "--studio", "x", "--date", "2025-06-01", "--start", "13:00", "--end", "14:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestExportCommand(t *testing.T) {
	srv := newBackend(t)
	path := filepath.Join(t.TempDir(), "studio.xlsx")

	_, err := run(t, "export", "--config", writeConfig(t, srv.URL), "--studio", "x", "--out", path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("studio x")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-06-01", rows[1][0])
	assert.Equal(t, "booked", rows[1][6])
}

func TestExportCommand_RequiresOut(t *testing.T) {
	_, err := run(t, "export", "--studio", "x")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "harmonix dev\n", out)
}

func TestRootCommand_RequiresStudio(t *testing.T) {
	_, err := run(t)
	assert.ErrorIs(t, err, errStudioRequired)
}
