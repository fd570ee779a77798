// Package memory keeps exported summaries in process. It backs the worker
// when no spreadsheet is configured and serves as the test double for the
// export path.
package memory

import (
	"context"
	"sort"
	"sync"

	"backoffice/internal/documents"
	ports "backoffice/internal/sheets"
)

var (
	_ ports.SummaryWriter = (*Store)(nil)
	_ ports.SummaryLister = (*Store)(nil)
)

type Store struct {
	mu   sync.Mutex
	rows map[string]ports.SummaryRow
}

func New() *Store {
	return &Store{rows: map[string]ports.SummaryRow{}}
}

func (s *Store) UpsertSummary(_ context.Context, row ports.SummaryRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.rows[row.Key()]; ok && cur.Version > row.Version {
		return nil
	}
	s.rows[row.Key()] = row
	return nil
}

func (s *Store) DeleteSummary(_ context.Context, kind documents.Kind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, ports.RowKey(kind, id))
	return nil
}

// ListSummaries returns the rows ordered by key.
func (s *Store) ListSummaries(_ context.Context) ([]ports.SummaryRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.SummaryRow, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}
