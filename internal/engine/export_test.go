package engine

import (
	"bytes"
	"strings"
	"testing"

	"watersafe/internal/model"
)

func TestTasksCSV(t *testing.T) {
	tasks := []model.ComplianceTask{
		{Name: "MCL - Arsenic", Due: "2025-01-10", Locations: "1", DaysLeft: -10, Status: model.StatusOverdue},
		{Name: "SITE VISIT", Due: "2025-02-01", Locations: "1", DaysLeft: 12, Status: model.StatusOnTrack},
	}
	out := TasksCSV(tasks)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), out)
	}
	if lines[0] != "Name,Due,Locations,Days Left,Status" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "MCL - Arsenic,2025-01-10,1,-10,Overdue" {
		t.Fatalf("unexpected row %q", lines[1])
	}
	if lines[2] != "SITE VISIT,2025-02-01,1,12,On Track" {
		t.Fatalf("unexpected row %q", lines[2])
	}
}

func TestTasksCSVDoesNotQuote(t *testing.T) {
	out := TasksCSV([]model.ComplianceTask{{Name: "Lead, Copper", Due: "2025-01-10", Locations: "0", Status: model.StatusUpcoming}})
	if !strings.Contains(out, "\nLead, Copper,2025-01-10,0,0,Upcoming") {
		t.Fatalf("expected raw comma join, got %q", out)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if strings.TrimRight(buf.String(), "\n") != "Name,Due,Locations,Days Left,Status" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestFilterAndSummary(t *testing.T) {
	tasks := []model.ComplianceTask{
		{Name: "MCL - Arsenic", Status: model.StatusOverdue},
		{Name: "MR - Lead", Status: model.StatusDueSoon},
		{Name: "", Status: model.StatusOverdue},
		{Name: "PLAN", Status: model.StatusOnTrack},
	}
	got := FilterTasks(tasks, TaskFilter{Status: model.StatusOverdue})
	if len(got) != 1 || got[0].Name != "MCL - Arsenic" {
		t.Fatalf("unexpected status filter result %+v", got)
	}
	got = FilterTasks(tasks, TaskFilter{Search: "lead"})
	if len(got) != 1 || got[0].Name != "MR - Lead" {
		t.Fatalf("unexpected search result %+v", got)
	}
	sum := Summarize("CA123", tasks, 2)
	if sum.Total != 4 || sum.Overdue != 2 || sum.DueSoon != 1 || sum.OnTrack != 1 || sum.Letters != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestParseStatus(t *testing.T) {
	if st, ok := ParseStatus("due_soon"); !ok || st != model.StatusDueSoon {
		t.Fatalf("expected due_soon to parse, got %q %v", st, ok)
	}
	if st, ok := ParseStatus("On Track"); !ok || st != model.StatusOnTrack {
		t.Fatalf("expected On Track to parse, got %q %v", st, ok)
	}
	if st, ok := ParseStatus(""); !ok || st != "" {
		t.Fatalf("expected empty to match all")
	}
	if _, ok := ParseStatus("late"); ok {
		t.Fatalf("expected unknown status to fail")
	}
}
