package normalize

import (
	"testing"
	"time"
)

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-01-10", "2025-01-10T00:00:00Z", "2025-01-10 00:00:00", "01/10/2025"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q: got %s", in, got)
		}
	}
	if _, err := ParseDate("not a date"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDaysLeft(t *testing.T) {
	now := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		in   string
		want int
	}{
		{"2025-01-10", -10},
		{"2025-01-25", 5},
		{"2025-01-28", 8},
		{"", 0},
		{"garbage", 0},
	}
	for _, tc := range cases {
		if got := DaysLeft(tc.in, now); got != tc.want {
			t.Fatalf("DaysLeft(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestDaysBetweenRoundsUp(t *testing.T) {
	now := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC)
	if got := DaysBetween(due, now); got != 1 {
		t.Fatalf("half day ahead: got %d", got)
	}
	past := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	if got := DaysBetween(past, now); got != -10 {
		t.Fatalf("ten and a half days behind: got %d", got)
	}
}

func TestInPast(t *testing.T) {
	now := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	if !InPast("2025-01-19", now) {
		t.Fatalf("expected past")
	}
	if InPast("2025-01-21", now) || InPast("bad", now) || InPast("", now) {
		t.Fatalf("unexpected past")
	}
}

func TestKeyPartAndPriority(t *testing.T) {
	if KeyPart("") != "unknown" || KeyPart("  ") != "unknown" || KeyPart("123") != "123" {
		t.Fatalf("key part substitution")
	}
	if Priority("") != "Medium" || Priority("High") != "High" {
		t.Fatalf("priority default")
	}
}
