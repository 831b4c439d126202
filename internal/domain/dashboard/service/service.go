// Package service keeps uploaded ledgers in memory and answers the dashboard
// queries against them.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/returns-insights/internal/domain/analysis"
	"github.com/FACorreiaa/returns-insights/internal/domain/import/parser"
	"github.com/FACorreiaa/returns-insights/internal/domain/metrics"
	"github.com/FACorreiaa/returns-insights/internal/domain/quality"
	"github.com/FACorreiaa/returns-insights/internal/domain/report"
	"github.com/FACorreiaa/returns-insights/internal/domain/search"
	"github.com/FACorreiaa/returns-insights/pkg/telemetry"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// DefaultTTL is used when the service is created without a TTL.
const DefaultTTL = 2 * time.Hour

// Service handles dashboard sessions.
type Service struct {
	loader  *parser.Loader
	engine  *metrics.Engine
	metrics *telemetry.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
	ttl     time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewService creates the dashboard service. engine, m and logger may be nil.
func NewService(loader *parser.Loader, engine *metrics.Engine, m *telemetry.Metrics, ttl time.Duration, logger *slog.Logger) *Service {
	if engine == nil {
		engine = metrics.NewEngine(nil)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		loader:   loader,
		engine:   engine,
		metrics:  m,
		tracer:   telemetry.Tracer("dashboard"),
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Load parses both workbooks and registers a new session.
func (s *Service) Load(ctx context.Context, sales, returns io.Reader) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.Load")
	defer span.End()

	start := time.Now()
	data, err := s.loader.Process(ctx, sales, returns)
	s.metrics.ObserveUpload(time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "process workbooks")
		return nil, err
	}
	s.metrics.AddRows("sales", data.RowCounts.Sales)
	s.metrics.AddRows("matrix", data.RowCounts.Matrix)
	s.metrics.AddRows("full", data.RowCounts.Full)

	index, err := search.NewIndex()
	if err != nil {
		return nil, err
	}
	if err := index.IndexReturns(data.Returns()); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to index returns: %w", err)
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Data:      data,
		Quality:   quality.ForData(data),
		index:     index,
		snapshots: make(map[int]metrics.Snapshot),
	}
	sess.input, sess.inputErr = metrics.InputFrom(data)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	count := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetSessions(count)

	span.SetAttributes(attribute.String("session.id", sess.ID.String()))
	s.logger.InfoContext(ctx, "session created",
		slog.String("session_id", sess.ID.String()),
		slog.Int("sales", data.RowCounts.Sales),
		slog.Float64("quality_score", sess.Quality.Score()),
	)
	return sess, nil
}

// Get returns a live session.
func (s *Service) Get(_ context.Context, id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.expired(s.now()) {
		s.remove(id)
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete drops a session and its search index.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if !s.remove(id) {
		return ErrSessionNotFound
	}
	s.logger.InfoContext(ctx, "session deleted", slog.String("session_id", id.String()))
	return nil
}

func (s *Service) remove(id uuid.UUID) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()

	if ok {
		sess.close()
		s.metrics.SetSessions(count)
	}
	return ok
}

// PurgeExpired removes every expired session and returns how many were dropped.
func (s *Service) PurgeExpired(ctx context.Context) int {
	now := s.now()

	s.mu.RLock()
	var expired []uuid.UUID
	for id, sess := range s.sessions {
		if sess.expired(now) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	purged := 0
	for _, id := range expired {
		if s.remove(id) {
			purged++
		}
	}
	if purged > 0 {
		s.logger.InfoContext(ctx, "expired sessions purged", slog.Int("count", purged))
	}
	return purged
}

// windowed returns a session whose data can anchor trailing windows.
func (s *Service) windowed(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.inputErr != nil {
		return nil, sess.inputErr
	}
	return sess, nil
}

// Metrics returns the snapshot of one window, memoized per session.
func (s *Service) Metrics(ctx context.Context, id uuid.UUID, days int) (metrics.Snapshot, error) {
	_, span := s.tracer.Start(ctx, "dashboard.Metrics", trace.WithAttributes(attribute.Int("window.days", days)))
	defer span.End()

	sess, err := s.windowed(ctx, id)
	if err != nil {
		return metrics.Snapshot{}, err
	}
	snap, cached := sess.snapshot(s.engine, days)
	s.metrics.ObserveComputation(cached)
	return snap, nil
}

// Windows returns one snapshot per window, defaulting to the standard set.
func (s *Service) Windows(ctx context.Context, id uuid.UUID, days []int) ([]metrics.Snapshot, error) {
	if len(days) == 0 {
		days = metrics.StandardWindows
	}
	out := make([]metrics.Snapshot, 0, len(days))
	for _, d := range days {
		snap, err := s.Metrics(ctx, id, d)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// Quality returns the data quality report computed at load.
func (s *Service) Quality(ctx context.Context, id uuid.UUID) (quality.Report, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return quality.Report{}, err
	}
	return sess.Quality, nil
}

// DeliveryMethods groups the window's sales by delivery method.
func (s *Service) DeliveryMethods(ctx context.Context, id uuid.UUID, days int) ([]analysis.DeliveryStats, error) {
	sess, err := s.windowed(ctx, id)
	if err != nil {
		return nil, err
	}
	return analysis.ByDeliveryMethod(sess.input, days), nil
}

// Advertising compares advertised and organic sales in the window.
func (s *Service) Advertising(ctx context.Context, id uuid.UUID, days int) ([]analysis.AdvertisingStats, error) {
	sess, err := s.windowed(ctx, id)
	if err != nil {
		return nil, err
	}
	return analysis.ByAdvertising(sess.input, days), nil
}

// Reasons ranks return reasons across both channels. It needs no dated sale.
func (s *Service) Reasons(ctx context.Context, id uuid.UUID) ([]analysis.ReasonStats, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return analysis.ByReason(sess.Data.Matrix, sess.Data.Full), nil
}

// SKURisk ranks SKUs of the window by return risk.
func (s *Service) SKURisk(ctx context.Context, id uuid.UUID, days, topN int) (analysis.SKURiskResult, error) {
	sess, err := s.windowed(ctx, id)
	if err != nil {
		return analysis.SKURiskResult{}, err
	}
	return analysis.SKURisk(sess.input, days, topN), nil
}

// Simulate projects the window with fewer returns.
func (s *Service) Simulate(ctx context.Context, id uuid.UUID, days int, reductionPct float64) (analysis.Simulation, error) {
	sess, err := s.windowed(ctx, id)
	if err != nil {
		return analysis.Simulation{}, err
	}
	return analysis.Simulate(sess.input, days, reductionPct)
}

// Channels compares return volume per channel.
func (s *Service) Channels(ctx context.Context, id uuid.UUID) ([]analysis.ChannelStats, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return analysis.CompareChannels(sess.Data), nil
}

// SearchReturns looks up returns by free text. A query made only of digits
// is treated as an order identifier.
func (s *Service) SearchReturns(ctx context.Context, id uuid.UUID, text string, limit int) ([]search.Hit, error) {
	_, span := s.tracer.Start(ctx, "dashboard.SearchReturns")
	defer span.End()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	return sess.search(func(ix *search.Index) ([]search.Hit, error) {
		if isOrderID(text) {
			return ix.ByOrder(text, limit)
		}
		return ix.Search(text, limit)
	})
}

func isOrderID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ExportWorkbook streams the dashboard workbook of a session.
func (s *Service) ExportWorkbook(ctx context.Context, id uuid.UUID, w io.Writer) error {
	ctx, span := s.tracer.Start(ctx, "dashboard.ExportWorkbook")
	defer span.End()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := report.WriteWorkbook(w, sess.Data, report.Options{Engine: s.engine}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "export workbook")
		return err
	}
	return nil
}

// ExportCSV streams one ledger of a session as CSV.
func (s *Service) ExportCSV(ctx context.Context, id uuid.UUID, kind report.Kind, w io.Writer) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return report.WriteCSV(w, sess.Data, kind)
}
