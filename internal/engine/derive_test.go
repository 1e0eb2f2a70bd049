package engine

import (
	"testing"
	"time"

	"watersafe/internal/model"
)

var testNow = time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)

func TestDeriveKeepsFirstDuplicate(t *testing.T) {
	violations := []model.ViolationRecord{
		{ViolationID: "V1", ViolationType: "MCL", ContaminantCode: "1005", ContaminantName: "Arsenic", BeginDate: "2025-01-10"},
		{ViolationID: "V1", ViolationType: "MCL", ContaminantCode: "1005", ContaminantName: "Arsenic (late)", BeginDate: "2025-03-01"},
		{ViolationID: "V1", ViolationType: "MR", ContaminantCode: "1005", ContaminantName: "Arsenic", BeginDate: "2025-03-01"},
	}
	tasks := DeriveTasks(violations, nil, testNow, DeriveOptions{})
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Name != "MCL - Arsenic" {
		t.Fatalf("expected first occurrence to win, got %q", tasks[0].Name)
	}
	if tasks[0].Due != "2025-01-10" {
		t.Fatalf("expected first occurrence due date, got %q", tasks[0].Due)
	}
}

func TestDeriveMissingFieldsShareUnknownKey(t *testing.T) {
	violations := []model.ViolationRecord{
		{ContaminantName: "Lead"},
		{ContaminantName: "Copper"},
	}
	tasks := DeriveTasks(violations, nil, testNow, DeriveOptions{})
	if len(tasks) != 1 {
		t.Fatalf("expected rows with no identity to collapse, got %d", len(tasks))
	}
	if tasks[0].ID != "violation-0" {
		t.Fatalf("expected index fallback id, got %q", tasks[0].ID)
	}
}

func TestDeriveOverdueTenDays(t *testing.T) {
	tasks := DeriveTasks([]model.ViolationRecord{{ViolationID: "V1", BeginDate: "2025-01-10", Status: "Active"}}, nil, testNow, DeriveOptions{})
	if tasks[0].DaysLeft != -10 {
		t.Fatalf("expected -10 days left, got %d", tasks[0].DaysLeft)
	}
	if tasks[0].Status != model.StatusOverdue {
		t.Fatalf("expected Overdue, got %s", tasks[0].Status)
	}
}

func TestDeriveStatusLadder(t *testing.T) {
	cases := []struct {
		begin  string
		status string
		want   model.TaskStatus
	}{
		{"2025-01-25", "Active", model.StatusDueSoon},
		{"2025-01-20", "Active", model.StatusDueSoon},
		{"2025-01-27", "Active", model.StatusDueSoon},
		{"2025-01-28", "Active", model.StatusUpcoming},
		{"2020-01-01", "Resolved", model.StatusCompleted},
		{"2030-01-01", "Closed", model.StatusCompleted},
		{"2020-01-01", "Pending", model.StatusOverdue},
	}
	for _, tc := range cases {
		tasks := DeriveTasks([]model.ViolationRecord{{ViolationID: "V", BeginDate: tc.begin, Status: tc.status}}, nil, testNow, DeriveOptions{})
		if tasks[0].Status != tc.want {
			t.Fatalf("begin %s status %s: expected %s, got %s", tc.begin, tc.status, tc.want, tasks[0].Status)
		}
	}
}

func TestDeriveDueDateFallbacks(t *testing.T) {
	violations := []model.ViolationRecord{
		{ViolationID: "A", FirstReported: "2025-02-01"},
		{ViolationID: "B"},
		{ViolationID: "C", BeginDate: "not a date"},
	}
	tasks := DeriveTasks(violations, nil, testNow, DeriveOptions{FallbackDueDate: "2025-06-30"})
	if tasks[0].Due != "2025-02-01" {
		t.Fatalf("expected first_reported fallback, got %q", tasks[0].Due)
	}
	if tasks[1].Due != "2025-06-30" {
		t.Fatalf("expected configured fallback, got %q", tasks[1].Due)
	}
	if tasks[2].DaysLeft != 0 || tasks[2].Status != model.StatusDueSoon {
		t.Fatalf("expected unparsable date to read as now, got %d %s", tasks[2].DaysLeft, tasks[2].Status)
	}

	tasks = DeriveTasks([]model.ViolationRecord{{ViolationID: "B"}}, nil, testNow, DeriveOptions{})
	if tasks[0].Due != "2024-12-31" {
		t.Fatalf("expected default fallback, got %q", tasks[0].Due)
	}
}

func TestDeriveEventsFollowViolations(t *testing.T) {
	events := []model.EventRecord{
		{MilestoneCode: "SITE VISIT", EndDate: "2025-01-01"},
		{MilestoneCode: "SITE VISIT", EndDate: "2025-01-01"},
		{ActualDate: "2025-01-05"},
		{MilestoneCode: "PLAN", EndDate: "2025-02-01"},
	}
	tasks := DeriveTasks([]model.ViolationRecord{{ViolationID: "V1"}}, events, testNow, DeriveOptions{})
	if len(tasks) != 5 {
		t.Fatalf("expected events to skip dedupe, got %d tasks", len(tasks))
	}
	if tasks[0].SourceType != model.SourceViolation {
		t.Fatalf("expected violation task first")
	}
	if tasks[1].Status != model.StatusOverdue || tasks[1].DaysLeft != -19 {
		t.Fatalf("expected past end date overdue, got %s %d", tasks[1].Status, tasks[1].DaysLeft)
	}
	if tasks[1].ID == tasks[2].ID {
		t.Fatalf("expected distinct event ids")
	}
	if tasks[3].Name != "Event" || tasks[3].Status != model.StatusOnTrack || tasks[3].DaysLeft != 0 {
		t.Fatalf("unexpected event without end date: %+v", tasks[3])
	}
	if tasks[3].Due != "2025-01-05" {
		t.Fatalf("expected actual date as due, got %q", tasks[3].Due)
	}
	if tasks[4].Status != model.StatusOnTrack || tasks[4].DaysLeft != 12 {
		t.Fatalf("expected future event on track, got %s %d", tasks[4].Status, tasks[4].DaysLeft)
	}
}

func TestDeriveDependsOnNow(t *testing.T) {
	v := []model.ViolationRecord{{ViolationID: "V1", BeginDate: "2025-01-25"}}
	a := DeriveTasks(v, nil, testNow, DeriveOptions{})
	b := DeriveTasks(v, nil, testNow.Add(72*time.Hour), DeriveOptions{})
	if a[0].DaysLeft == b[0].DaysLeft {
		t.Fatalf("expected days left to move with now")
	}
}
