package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
	"github.com/FACorreiaa/returns-insights/internal/domain/metrics"
	"github.com/FACorreiaa/returns-insights/internal/domain/quality"
	"github.com/FACorreiaa/returns-insights/internal/domain/search"
)

// Session is one uploaded pair of workbooks. The processed data is never
// modified after load; only the snapshot cache changes.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
	Data      *ledger.ProcessedData
	Quality   quality.Report

	// input is valid only when inputErr is nil.
	input    metrics.Input
	inputErr error

	// indexMu guards index; a closed session has a nil index.
	indexMu sync.RWMutex
	index   *search.Index

	mu        sync.Mutex
	snapshots map[int]metrics.Snapshot
}

// Summary describes a session to API clients.
type Summary struct {
	ID            uuid.UUID        `json:"id"`
	CreatedAt     time.Time        `json:"criado_em"`
	ExpiresAt     time.Time        `json:"expira_em"`
	Rows          ledger.RowCounts `json:"linhas"`
	ReferenceDate *time.Time       `json:"data_referencia,omitempty"`
	QualityScore  float64          `json:"pontuacao_qualidade"`
}

// Summary returns the session description.
func (s *Session) Summary() Summary {
	sum := Summary{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		ExpiresAt:    s.ExpiresAt,
		Rows:         s.Data.RowCounts,
		QualityScore: s.Quality.Score(),
	}
	if s.inputErr == nil {
		ref := s.input.ReferenceDate
		sum.ReferenceDate = &ref
	}
	return sum
}

func (s *Session) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// snapshot returns the cached snapshot of a window, computing it on a miss.
func (s *Session) snapshot(engine *metrics.Engine, days int) (metrics.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, ok := s.snapshots[days]; ok {
		return snap, true
	}
	snap := engine.Compute(s.input, days)
	s.snapshots[days] = snap
	return snap, false
}

// search runs fn against the session index. It fails with
// ErrSessionNotFound once the session has been closed.
func (s *Session) search(fn func(*search.Index) ([]search.Hit, error)) ([]search.Hit, error) {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()

	if s.index == nil {
		return nil, ErrSessionNotFound
	}
	return fn(s.index)
}

// close waits for running searches before releasing the index.
func (s *Session) close() {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	if s.index != nil {
		_ = s.index.Close()
		s.index = nil
	}
}
