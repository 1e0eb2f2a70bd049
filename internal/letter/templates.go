package letter

import "watersafe/internal/model"

const (
	TemplateUrgent    = "tier1-urgent"
	TemplateViolation = "tier2-violation"
	TemplateAnnual    = "tier3-ccr"
)

type Template struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Tier        model.Tier `json:"tier"`
	Description string     `json:"description"`
	Urgency     string     `json:"urgency"`
}

var templates = []Template{
	{
		ID:          TemplateUrgent,
		Name:        "Tier 1 - Urgent Notice (24hrs)",
		Tier:        model.Tier1Urgent,
		Description: "Immediate public notification for acute health risks",
		Urgency:     "Urgent",
	},
	{
		ID:          TemplateViolation,
		Name:        "Tier 2 - Violation Notice (30 days)",
		Tier:        model.Tier2Standard,
		Description: "Standard violation notification to customers",
		Urgency:     "High",
	},
	{
		ID:          TemplateAnnual,
		Name:        "Tier 3 - Annual CCR Summary",
		Tier:        model.Tier3Annual,
		Description: "Annual Consumer Confidence Report",
		Urgency:     "Medium",
	},
}

func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

func Lookup(id string) (Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}
