package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"watersafe/internal/model"
)

func TestStoreUpdateAndEvict(t *testing.T) {
	s := NewStore(2)
	s.Update(model.TaskSummary{PWSID: "GA1", Total: 3})
	s.Update(model.TaskSummary{PWSID: "GA2", Total: 1})
	s.Update(model.TaskSummary{PWSID: ""})
	if got := len(s.GetAll()); got != 2 {
		t.Fatalf("expected 2 systems, got %d", got)
	}
	s.Update(model.TaskSummary{PWSID: "GA3", Total: 4})
	if got := len(s.GetAll()); got != 2 {
		t.Fatalf("expected eviction to keep 2, got %d", got)
	}
	sum, _, ok := s.Get("GA3")
	if !ok || sum.Total != 4 {
		t.Fatalf("missing latest summary")
	}
	s.Clear()
	if len(s.GetAll()) != 0 {
		t.Fatalf("clear failed")
	}
}

func TestCollectors(t *testing.T) {
	c, err := NewCollectors(nil)
	if err != nil {
		t.Fatalf("collectors: %v", err)
	}
	c.LettersGenerated.WithLabelValues("tier1-urgent").Inc()
	c.LettersGenerated.WithLabelValues("tier1-urgent").Inc()
	if got := testutil.ToFloat64(c.LettersGenerated.WithLabelValues("tier1-urgent")); got != 2 {
		t.Fatalf("counter: %v", got)
	}
	if _, err := NewCollectors(c.Registry()); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
