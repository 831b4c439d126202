package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/FACorreiaa/returns-insights/internal/domain/import/parser"
	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
	"github.com/FACorreiaa/returns-insights/internal/domain/metrics"
	"github.com/FACorreiaa/returns-insights/internal/domain/quality"
	"github.com/FACorreiaa/returns-insights/pkg/mailer"
	"github.com/FACorreiaa/returns-insights/pkg/storage"
)

// ScheduledFolder is the storage folder holding scheduled reports.
const ScheduledFolder = "scheduled"

// XLSXContentType is the MIME type of generated workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Mailer sends a finished report.
type Mailer interface {
	Enabled() bool
	SendReport(ctx context.Context, subject, summary string, attachment mailer.Attachment) (string, error)
}

// Job rebuilds the workbook from files on disk, stores it and optionally
// e-mails it.
type Job struct {
	loader      *parser.Loader
	store       storage.Storage
	mailer      Mailer
	salesPath   string
	returnsPath string
	logger      *slog.Logger
	now         func() time.Time
}

// NewJob creates the scheduled report job. mailer may be nil.
func NewJob(loader *parser.Loader, store storage.Storage, m Mailer, salesPath, returnsPath string, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Job{
		loader:      loader,
		store:       store,
		mailer:      m,
		salesPath:   salesPath,
		returnsPath: returnsPath,
		logger:      logger,
		now:         time.Now,
	}
}

// Name identifies the job in logs and metrics.
func (j *Job) Name() string { return "scheduled_report" }

// Run executes one report cycle.
func (j *Job) Run(ctx context.Context) error {
	data, err := j.load(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, data, Options{}); err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	content := buf.Bytes()

	filename := fmt.Sprintf("relatorio_%s.xlsx", j.now().Format("2006-01-02_1504"))
	info, err := j.store.Upload(ctx, ScheduledFolder, filename, XLSXContentType, bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}
	j.logger.Info("scheduled report stored",
		slog.String("file_id", info.ID.String()),
		slog.Int64("size", info.Size),
	)

	if j.mailer == nil || !j.mailer.Enabled() {
		return nil
	}

	in, err := metrics.InputFrom(data)
	if err != nil {
		return err
	}
	summary := SummaryText(metrics.Compute(in, metrics.SummaryWindow), quality.ForData(data))
	subject := fmt.Sprintf("Relatório de devoluções - %s", j.now().Format("02/01/2006"))

	if _, err := j.mailer.SendReport(ctx, subject, summary, mailer.Attachment{
		Filename:    filename,
		ContentType: XLSXContentType,
		Content:     content,
	}); err != nil {
		return err
	}
	return nil
}

func (j *Job) load(ctx context.Context) (*ledger.ProcessedData, error) {
	sales, err := os.Open(j.salesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sales file: %w", err)
	}
	defer sales.Close()

	returns, err := os.Open(j.returnsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open returns file: %w", err)
	}
	defer returns.Close()

	return j.loader.Process(ctx, sales, returns)
}
