package letters

import (
	"sync"
	"testing"
	"time"

	"watersafe/internal/model"
)

func letter(id, key, pwsid string, at time.Time) model.Letter {
	return model.Letter{ID: id, EntityKey: key, SystemID: pwsid, GeneratedAt: at}
}

func TestStoreHasAndLookup(t *testing.T) {
	s := NewStore(10)
	now := time.Now()
	s.Add(letter("l1", "violation:V1", "GA1", now))
	s.Add(letter("l2", "", "GA1", now))
	if !s.Has("violation:V1") {
		t.Fatalf("expected key present")
	}
	if s.Has("") {
		t.Fatalf("manual letters must not register an empty key")
	}
	got, ok := s.Lookup("violation:V1")
	if !ok || got.ID != "l1" {
		t.Fatalf("lookup returned %+v %v", got, ok)
	}
}

func TestStoreKeysSurviveEviction(t *testing.T) {
	s := NewStore(2)
	now := time.Now()
	s.Add(letter("l1", "violation:V1", "GA1", now))
	s.Add(letter("l2", "violation:V2", "GA1", now))
	s.Add(letter("l3", "violation:V3", "GA1", now))
	if s.Len() != 2 {
		t.Fatalf("len: %d", s.Len())
	}
	if !s.Has("violation:V1") {
		t.Fatalf("evicted letter lost its key")
	}
	if _, ok := s.Get("l1"); !ok {
		t.Fatalf("evicted keyed letter should still resolve by id")
	}
	list := s.List(0)
	if list[0].ID != "l2" || list[1].ID != "l3" {
		t.Fatalf("unexpected order: %v", list)
	}
}

func TestStoreUpdateAndFilters(t *testing.T) {
	s := NewStore(10)
	base := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	s.Add(letter("l1", "task:event-0", "GA1", base))
	s.Add(letter("l2", "violation:V9", "GA2", base.Add(time.Hour)))

	l, _ := s.Get("l1")
	l.Status = model.LetterSent
	if !s.Update(l) {
		t.Fatalf("update failed")
	}
	if got, _ := s.Lookup("task:event-0"); got.Status != model.LetterSent {
		t.Fatalf("key index not updated")
	}
	if got := s.ForSystem("GA2"); len(got) != 1 || got[0].ID != "l2" {
		t.Fatalf("for system: %v", got)
	}
	if got := s.Since(base.Add(30 * time.Minute)); len(got) != 1 {
		t.Fatalf("since: %v", got)
	}
	s.Clear()
	if s.Len() != 0 || s.Has("task:event-0") {
		t.Fatalf("clear left data behind")
	}
}

func TestBeginGenerationSerializes(t *testing.T) {
	s := NewStore(10)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			release := s.BeginGeneration()
			defer release()
			if _, ok := s.Lookup("violation:V1"); ok {
				return
			}
			time.Sleep(time.Millisecond)
			s.Add(letter("L"+string(rune('a'+i)), "violation:V1", "CA1", time.Now()))
		}(i)
	}
	wg.Wait()
	if s.Len() != 1 {
		t.Fatalf("expected one letter for the key, got %d", s.Len())
	}
}
