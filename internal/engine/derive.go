package engine

import (
	"strconv"
	"strings"
	"time"

	"watersafe/internal/model"
	"watersafe/internal/normalize"
)

// DeriveOptions carries the tunables of task derivation.
type DeriveOptions struct {
	FallbackDueDate string
	DueSoonDays     int
}

func defaultDeriveOptions() DeriveOptions {
	return DeriveOptions{FallbackDueDate: "2024-12-31", DueSoonDays: 7}
}

// DeriveTasks turns a system's violations and milestone events into
// compliance tasks. Violation tasks come first, deduplicated on
// (violation_id, violation_type, contaminant_code) with the first occurrence
// winning; event tasks follow in input order without deduplication.
//
// now is read by the caller. Two calls with different now values over the
// same records can disagree on days_left and status.
func DeriveTasks(violations []model.ViolationRecord, events []model.EventRecord, now time.Time, opts DeriveOptions) []model.ComplianceTask {
	if opts.FallbackDueDate == "" {
		opts.FallbackDueDate = defaultDeriveOptions().FallbackDueDate
	}
	if opts.DueSoonDays <= 0 {
		opts.DueSoonDays = defaultDeriveOptions().DueSoonDays
	}
	tasks := make([]model.ComplianceTask, 0, len(violations)+len(events))
	seen := make(map[string]struct{}, len(violations))
	for i, v := range violations {
		key := ViolationKey(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tasks = append(tasks, violationTask(i, v, now, opts))
	}
	for i, ev := range events {
		tasks = append(tasks, eventTask(i, ev, now))
	}
	return tasks
}

// ViolationKey is the composite identity used to collapse duplicate
// violation rows.
func ViolationKey(v model.ViolationRecord) string {
	return strings.Join([]string{
		normalize.KeyPart(v.ViolationID),
		normalize.KeyPart(v.ViolationType),
		normalize.KeyPart(v.ContaminantCode),
	}, "|")
}

func violationTask(index int, v model.ViolationRecord, now time.Time, opts DeriveOptions) model.ComplianceTask {
	due := normalize.FirstNonEmpty(v.BeginDate, v.FirstReported, opts.FallbackDueDate)
	daysLeft := normalize.DaysLeft(due, now)

	id := v.ViolationID
	if strings.TrimSpace(id) == "" {
		id = strconv.Itoa(index)
	}
	locations := "0"
	if v.RequiresAction {
		locations = "1"
	}
	return model.ComplianceTask{
		ID:          "violation-" + id,
		Name:        v.ViolationType + " - " + v.ContaminantName,
		SourceType:  model.SourceViolation,
		Due:         due,
		Status:      violationStatus(v, daysLeft, opts.DueSoonDays),
		DaysLeft:    daysLeft,
		Locations:   locations,
		Priority:    normalize.Priority(v.Priority),
		Description: "Violation ID: " + v.ViolationID + ", Code: " + v.ViolationCode,
		ViolationID: v.ViolationID,
	}
}

func violationStatus(v model.ViolationRecord, daysLeft, dueSoonDays int) model.TaskStatus {
	switch {
	case normalize.IsClosedStatus(v.Status):
		return model.StatusCompleted
	case daysLeft < 0:
		return model.StatusOverdue
	case daysLeft <= dueSoonDays:
		return model.StatusDueSoon
	default:
		return model.StatusUpcoming
	}
}

func eventTask(index int, ev model.EventRecord, now time.Time) model.ComplianceTask {
	name := ev.MilestoneCode
	if strings.TrimSpace(name) == "" {
		name = "Event"
	}
	status := model.StatusOnTrack
	daysLeft := 0
	if strings.TrimSpace(ev.EndDate) != "" {
		daysLeft = normalize.DaysLeft(ev.EndDate, now)
		if normalize.InPast(ev.EndDate, now) {
			status = model.StatusOverdue
		}
	}
	return model.ComplianceTask{
		ID:          "event-" + strconv.Itoa(index),
		Name:        name,
		SourceType:  model.SourceEvent,
		Due:         normalize.FirstNonEmpty(ev.EndDate, ev.ActualDate),
		Status:      status,
		DaysLeft:    daysLeft,
		Locations:   "1",
		Description: ev.Comments,
		EventID:     ev.ScheduleID,
	}
}
