// Package search provides full-text lookup over return records using an
// in-memory Bleve index.
package search

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
)

const defaultLimit = 10

// Document is the indexed view of a return record.
type Document struct {
	OrderID           string `json:"order_id"`
	Channel           string `json:"channel"`
	State             string `json:"state"`
	Reason            string `json:"reason"`
	StatusDescription string `json:"status_description"`
	DeliveryMethod    string `json:"delivery_method"`
}

// Hit is a matched return with its relevance score.
type Hit struct {
	Record ledger.ReturnRecord `json:"devolucao"`
	Score  float64             `json:"score"`
}

// Index holds the returns of one upload.
type Index struct {
	index   bleve.Index
	records map[string]ledger.ReturnRecord
	mu      sync.RWMutex
}

// NewIndex creates an empty in-memory index.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return &Index{index: idx, records: make(map[string]ledger.ReturnRecord)}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("order_id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("channel", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("state", textFieldMapping)
	docMapping.AddFieldMappingsAt("reason", textFieldMapping)
	docMapping.AddFieldMappingsAt("status_description", textFieldMapping)
	docMapping.AddFieldMappingsAt("delivery_method", textFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name
	return indexMapping
}

func docID(r ledger.ReturnRecord) string {
	return fmt.Sprintf("%s_%d", r.Channel, r.Row)
}

// IndexReturns adds the records in one batch. Records are keyed by channel
// and sheet row, so indexing the same upload twice replaces documents.
func (ix *Index) IndexReturns(records []ledger.ReturnRecord) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	batch := ix.index.NewBatch()
	for _, r := range records {
		id := docID(r)
		doc := Document{
			OrderID:           r.OrderID,
			Channel:           string(r.Channel),
			State:             r.State,
			Reason:            r.Reason,
			StatusDescription: r.StatusDescription,
			DeliveryMethod:    r.DeliveryMethod,
		}
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("failed to index return %s: %w", id, err)
		}
		ix.records[id] = r
	}

	if err := ix.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	return nil
}

// Search matches free text against state, reason, status and delivery
// method, tolerating one typo per term.
func (ix *Index) Search(text string, limit int) ([]Hit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []Hit{}, nil
	}

	q := bleve.NewMatchQuery(text)
	q.SetFuzziness(1)
	return ix.run(q, limit)
}

// ByOrder returns every return of an order identifier.
func (ix *Index) ByOrder(orderID string, limit int) ([]Hit, error) {
	q := bleve.NewTermQuery(strings.TrimSpace(orderID))
	q.SetField("order_id")
	return ix.run(q, limit)
}

func (ix *Index) run(q query.Query, limit int) ([]Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if limit <= 0 {
		limit = defaultLimit
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"*"}

	res, err := ix.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		rec, ok := ix.records[h.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{Record: rec, Score: h.Score})
	}
	return hits, nil
}

// Count returns the number of indexed documents.
func (ix *Index) Count() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.index.DocCount()
}

// Close releases the index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Close()
}
