// Command api serves the returns dashboard API and offers one-shot report
// and seed commands.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger/ledgertest"
	"github.com/FACorreiaa/returns-insights/internal/domain/metrics"
	"github.com/FACorreiaa/returns-insights/internal/domain/quality"
	"github.com/FACorreiaa/returns-insights/internal/domain/report"
	"github.com/FACorreiaa/returns-insights/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "returns-insights",
		Usage: "reconcile marketplace sales with returns",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the scheduler",
				Action: serve,
			},
			{
				Name:  "report",
				Usage: "build the dashboard workbook from two exports",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sales", Usage: "sales workbook path", Required: true},
					&cli.StringFlag{Name: "returns", Usage: "returns workbook path", Required: true},
					&cli.StringFlag{Name: "out", Usage: "output workbook path", Value: report.DefaultFileName},
				},
				Action: runReport,
			},
			{
				Name:  "seed",
				Usage: "write synthetic sales and returns workbooks",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out-dir", Usage: "output directory", Value: "."},
					&cli.IntFlag{Name: "sales", Usage: "number of sales", Value: 500},
					&cli.IntFlag{Name: "days", Usage: "days covered by the sales", Value: 200},
					&cli.Float64Flag{Name: "return-rate", Usage: "share of sales returned (0..1)", Value: 0.12},
					&cli.Int64Flag{Name: "seed", Usage: "random seed, 0 for a random one"},
				},
				Action: seed,
			},
		},
	}
}

// newLogger builds the process logger. format overrides the configured one
// when not empty.
func newLogger(cfg config.LogConfig, format string) *slog.Logger {
	if format == "" {
		format = cfg.Format
	}
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, "")
	slog.SetDefault(logger)

	deps, err := InitDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Cleanup()

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           deps.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	deps.Scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-c.Context.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

func runReport(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, "text")

	salesFile, err := os.Open(c.String("sales"))
	if err != nil {
		return fmt.Errorf("failed to open sales file: %w", err)
	}
	defer salesFile.Close()

	returnsFile, err := os.Open(c.String("returns"))
	if err != nil {
		return fmt.Errorf("failed to open returns file: %w", err)
	}
	defer returnsFile.Close()

	data, err := newLoader(cfg, logger).Process(c.Context, salesFile, returnsFile)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, data, report.Options{}); err != nil {
		return err
	}
	out := c.String("out")
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	in, err := metrics.InputFrom(data)
	if err != nil {
		return err
	}
	summary := report.SummaryText(metrics.Compute(in, metrics.SummaryWindow), quality.ForData(data))
	logger.Info("report written", slog.String("path", out), slog.Int("bytes", buf.Len()))
	fmt.Fprint(c.App.Writer, summary)
	return nil
}

func seed(c *cli.Context) error {
	gen := ledgertest.NewGenerator()
	if s := c.Int64("seed"); s != 0 {
		gen = ledgertest.NewGeneratorWithSeed(s)
	}

	ref := time.Now().Truncate(time.Minute)
	sales := gen.Sales(c.Int("sales"), ref, c.Int("days"), nil)
	matrix, full := gen.Returns(sales, c.Float64("return-rate"))

	salesBytes, err := ledgertest.SalesWorkbook(sales)
	if err != nil {
		return err
	}
	returnsBytes, err := ledgertest.ReturnsWorkbook(matrix, full)
	if err != nil {
		return err
	}

	dir := c.String("out-dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for name, content := range map[string][]byte{
		"vendas.xlsx":     salesBytes,
		"devolucoes.xlsx": returnsBytes,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	fmt.Fprintf(c.App.Writer, "wrote %d sales, %d matrix and %d full returns to %s\n",
		len(sales), len(matrix), len(full), dir)
	return nil
}
