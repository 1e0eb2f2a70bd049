package engine

import (
	"strings"

	"watersafe/internal/letter"
	"watersafe/internal/model"
)

// Generated is the set of entity keys that already have a letter in the
// current session.
type Generated interface {
	Has(key string) bool
}

// Assignment binds one violation or task to the tier whose letter it needs.
// Exactly one of Violation and Task is set.
type Assignment struct {
	Tier       model.Tier             `json:"tier"`
	TemplateID string                 `json:"template_id"`
	Key        string                 `json:"key"`
	Violation  *model.ViolationRecord `json:"violation,omitempty"`
	Task       *model.ComplianceTask  `json:"task,omitempty"`
}

// ClassifyOptions tunes Tier 3 selection. A task needs an annual notice once
// it is more than AnnualOverdueDays past due; zero means the default of 7.
type ClassifyOptions struct {
	AnnualOverdueDays int
}

const defaultAnnualOverdueDays = 7

func ViolationEntityKey(v model.ViolationRecord) string {
	if strings.TrimSpace(v.ViolationID) == "" {
		return "violation:" + ViolationKey(v)
	}
	return "violation:" + v.ViolationID
}

func TaskEntityKey(t model.ComplianceTask) string {
	return "task:" + t.ID
}

// NeedsLetter reports whether a violation passes the shared Tier 1/2 gate.
func NeedsLetter(v model.ViolationRecord) bool {
	return strings.TrimSpace(v.Status) == model.ViolationActive && v.RequiresAction
}

// Classify assigns tiers in generation order: every Tier 1 violation, then
// every Tier 2 violation, then every Tier 3 task, each group in input order.
// Entities whose key is in generated are skipped, and a key is assigned at
// most once even when the input repeats it.
func Classify(tasks []model.ComplianceTask, violations []model.ViolationRecord, generated Generated, opts ClassifyOptions) []Assignment {
	if opts.AnnualOverdueDays <= 0 {
		opts.AnnualOverdueDays = defaultAnnualOverdueDays
	}
	threshold := -opts.AnnualOverdueDays
	claimed := make(map[string]struct{})
	available := func(key string) bool {
		if _, ok := claimed[key]; ok {
			return false
		}
		if generated != nil && generated.Has(key) {
			return false
		}
		return true
	}

	var urgent, standard, annual []Assignment
	for i := range violations {
		v := violations[i]
		if !NeedsLetter(v) {
			continue
		}
		key := ViolationEntityKey(v)
		if !available(key) {
			continue
		}
		claimed[key] = struct{}{}
		if strings.TrimSpace(v.Priority) == model.PriorityHigh {
			urgent = append(urgent, Assignment{Tier: model.Tier1Urgent, TemplateID: letter.TemplateUrgent, Key: key, Violation: &v})
		} else {
			standard = append(standard, Assignment{Tier: model.Tier2Standard, TemplateID: letter.TemplateViolation, Key: key, Violation: &v})
		}
	}
	for i := range tasks {
		t := tasks[i]
		if t.Status != model.StatusOverdue || t.DaysLeft >= threshold {
			continue
		}
		key := TaskEntityKey(t)
		if !available(key) {
			continue
		}
		claimed[key] = struct{}{}
		annual = append(annual, Assignment{Tier: model.Tier3Annual, TemplateID: letter.TemplateAnnual, Key: key, Task: &t})
	}

	out := make([]Assignment, 0, len(urgent)+len(standard)+len(annual))
	out = append(out, urgent...)
	out = append(out, standard...)
	out = append(out, annual...)
	return out
}
