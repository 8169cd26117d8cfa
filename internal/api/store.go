package api

import (
	"slices"
	"sync"

	"github.com/samcharles93/cumscan/internal/harness"
)

// DefaultStoreCapacity bounds how many reports a ReportStore keeps.
const DefaultStoreCapacity = 256

// ReportStore keeps finished scan reports in memory, evicting the oldest
// once capacity is reached.
type ReportStore struct {
	mu       sync.Mutex
	capacity int
	order    []string
	reports  map[string]*harness.Report
}

func NewReportStore(capacity int) *ReportStore {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &ReportStore{
		capacity: capacity,
		reports:  make(map[string]*harness.Report),
	}
}

func (s *ReportStore) Put(rep *harness.Report) {
	id := rep.ID.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		s.order = append(s.order, id)
	}
	s.reports[id] = rep
	for len(s.order) > s.capacity {
		delete(s.reports, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *ReportStore) Get(id string) (*harness.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.reports[id]
	return rep, ok
}

func (s *ReportStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return false
	}
	delete(s.reports, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return true
}

// List returns summaries oldest first.
func (s *ReportStore) List() []ScanSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScanSummary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, summarize(s.reports[id]))
	}
	return out
}

func (s *ReportStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}
