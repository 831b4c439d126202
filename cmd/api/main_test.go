package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/returns-insights/internal/domain/report"
	"github.com/FACorreiaa/returns-insights/pkg/config"
)

func TestSeedAndReportCommands(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.RunContext(context.Background(), []string{
		"returns-insights", "seed", "--out-dir", dir, "--sales", "60", "--seed", "11",
	}))
	assert.Contains(t, out.String(), "wrote 60 sales")
	assert.FileExists(t, filepath.Join(dir, "vendas.xlsx"))
	assert.FileExists(t, filepath.Join(dir, "devolucoes.xlsx"))

	out.Reset()
	workbook := filepath.Join(dir, "dashboard.xlsx")
	app = newApp()
	app.Writer = &out
	require.NoError(t, app.RunContext(context.Background(), []string{
		"returns-insights", "report",
		"--sales", filepath.Join(dir, "vendas.xlsx"),
		"--returns", filepath.Join(dir, "devolucoes.xlsx"),
		"--out", workbook,
	}))
	assert.Contains(t, out.String(), "Vendas: ")

	f, err := excelize.OpenFile(workbook)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{
		report.SheetSummary, report.SheetQuality, report.SheetWindows,
		report.SheetChannels, report.SheetRawSales, report.SheetRawReturns,
	}, f.GetSheetList())
}

func TestReportCommand_MissingFile(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.RunContext(context.Background(), []string{
		"returns-insights", "report", "--sales", filepath.Join(t.TempDir(), "x.xlsx"), "--returns", "y.xlsx",
	})
	assert.ErrorContains(t, err, "failed to open sales file")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host: "localhost", Port: 8080, RateLimitPerSecond: 10, RateLimitBurst: 10,
			MaxUploadMB: 5, ShutdownTimeout: time.Second, SessionTTL: time.Hour,
		},
		Storage:       config.StorageConfig{LocalPath: t.TempDir()},
		Observability: config.ObservabilityConfig{MetricsEnabled: true},
		Log:           config.LogConfig{Level: "error", Format: "text"},
	}
}

func TestInitDependencies(t *testing.T) {
	deps, err := InitDependencies(testConfig(t), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer deps.Cleanup()

	assert.Nil(t, deps.ReportJob, "no schedule configured")
	assert.False(t, deps.Mailer.Enabled())
	assert.Len(t, deps.Scheduler.Next(), 1, "session cleanup only")

	rec := httptest.NewRecorder()
	deps.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	deps.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInitDependencies_ScheduledReport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Report = config.ReportConfig{Schedule: "0 6 * * *", SalesPath: "vendas.xlsx", ReturnsPath: "devolucoes.xlsx"}

	deps, err := InitDependencies(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer deps.Cleanup()
	assert.NotNil(t, deps.ReportJob)
	assert.Len(t, deps.Scheduler.Next(), 2)

	cfg.Report.Schedule = "not a schedule"
	_, err = InitDependencies(cfg, slog.New(slog.DiscardHandler))
	assert.ErrorContains(t, err, "invalid REPORT_SCHEDULE")
}

func TestNewLogger(t *testing.T) {
	cfg := config.LogConfig{Level: "debug", Format: "json"}
	logger := newLogger(cfg, "")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	_, isText := newLogger(cfg, "text").Handler().(*slog.TextHandler)
	assert.True(t, isText)
}
