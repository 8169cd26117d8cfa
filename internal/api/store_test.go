package api

import (
	"testing"

	"github.com/google/uuid"

	"github.com/samcharles93/cumscan/internal/harness"
)

func TestReportStoreEvictsOldest(t *testing.T) {
	t.Parallel()
	s := NewReportStore(2)
	reps := []*harness.Report{
		{ID: uuid.New()},
		{ID: uuid.New()},
		{ID: uuid.New()},
	}
	for _, r := range reps {
		s.Put(r)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if _, ok := s.Get(reps[0].ID.String()); ok {
		t.Fatal("oldest report should have been evicted")
	}
	list := s.List()
	if len(list) != 2 || list[0].ID != reps[1].ID.String() || list[1].ID != reps[2].ID.String() {
		t.Fatalf("List() = %+v", list)
	}
}

func TestReportStorePutSameIDReplaces(t *testing.T) {
	t.Parallel()
	s := NewReportStore(0)
	id := uuid.New()
	s.Put(&harness.Report{ID: id, Pass: false})
	s.Put(&harness.Report{ID: id, Pass: true})
	if s.Len() != 1 || len(s.List()) != 1 {
		t.Fatalf("duplicate put grew the store: Len=%d", s.Len())
	}
	rep, _ := s.Get(id.String())
	if !rep.Pass {
		t.Fatal("second put did not replace the report")
	}
	if !s.Delete(id.String()) || s.Delete(id.String()) {
		t.Fatal("Delete should succeed once")
	}
	if len(s.List()) != 0 {
		t.Fatal("List() not empty after delete")
	}
}
