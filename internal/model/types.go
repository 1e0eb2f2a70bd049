package model

import "time"

type TaskStatus string

const (
	StatusCompleted TaskStatus = "Completed"
	StatusOverdue   TaskStatus = "Overdue"
	StatusDueSoon   TaskStatus = "Due Soon"
	StatusUpcoming  TaskStatus = "Upcoming"
	StatusOnTrack   TaskStatus = "On Track"
)

type SourceType string

const (
	SourceViolation SourceType = "Violation"
	SourceEvent     SourceType = "Event"
)

const (
	ViolationActive   = "Active"
	ViolationResolved = "Resolved"
	ViolationClosed   = "Closed"
	ViolationPending  = "Pending"

	PriorityHigh    = "High"
	PriorityMedium  = "Medium"
	DefaultPriority = PriorityMedium
)

type ViolationRecord struct {
	ViolationID       string `json:"violation_id,omitempty"`
	ViolationCode     string `json:"violation_code,omitempty"`
	ViolationCategory string `json:"violation_category,omitempty"`
	ViolationType     string `json:"violation_type,omitempty"`
	ContaminantCode   string `json:"contaminant_code,omitempty"`
	ContaminantName   string `json:"contaminant_name,omitempty"`
	ComplianceStatus  string `json:"compliance_status,omitempty"`
	Status            string `json:"status,omitempty"`
	BeginDate         string `json:"violation_begin_date,omitempty"`
	EndDate           string `json:"violation_end_date,omitempty"`
	ResolvedDate      string `json:"violation_resolved_date,omitempty"`
	FirstReported     string `json:"first_reported,omitempty"`
	RequiresAction    bool   `json:"requires_action"`
	Priority          string `json:"priority,omitempty"`
}

type EventRecord struct {
	ScheduleID    string `json:"event_schedule_id,omitempty"`
	MilestoneCode string `json:"event_milestone_code,omitempty"`
	ReasonCode    string `json:"event_reason_code,omitempty"`
	EndDate       string `json:"event_end_date,omitempty"`
	ActualDate    string `json:"event_actual_date,omitempty"`
	Comments      string `json:"event_comments,omitempty"`
}

type Contact struct {
	Organization string `json:"organization,omitempty"`
	AdminName    string `json:"admin_name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

type Address struct {
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
	Zip   string `json:"zip,omitempty"`
}

type GeographicArea struct {
	County  string `json:"county,omitempty"`
	City    string `json:"city,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
}

type WaterSystem struct {
	PWSID            string            `json:"pwsid"`
	Name             string            `json:"name"`
	Type             string            `json:"type,omitempty"`
	PrimarySource    string            `json:"primary_source,omitempty"`
	PopulationServed int               `json:"population_served"`
	Contact          Contact           `json:"contact"`
	Address          Address           `json:"address"`
	Areas            []GeographicArea  `json:"geographic_areas,omitempty"`
	Violations       []ViolationRecord `json:"violations_enforcement,omitempty"`
	Events           []EventRecord     `json:"events_milestones,omitempty"`
}

type ContaminantInfo struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	HealthEffects string   `json:"healthEffects"`
	WhatToDo      string   `json:"whatToDo"`
	Sources       []string `json:"sources"`
	MCL           string   `json:"mcl"`
	Category      string   `json:"category"`
}

type ComplianceTask struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	SourceType  SourceType `json:"source_type"`
	Due         string     `json:"due"`
	Status      TaskStatus `json:"status"`
	DaysLeft    int        `json:"days_left"`
	Locations   string     `json:"locations"`
	Priority    string     `json:"priority,omitempty"`
	Description string     `json:"description,omitempty"`
	ViolationID string     `json:"violation_id,omitempty"`
	EventID     string     `json:"event_id,omitempty"`
}

type Tier int

const (
	Tier1Urgent   Tier = 1
	Tier2Standard Tier = 2
	Tier3Annual   Tier = 3
)

func (t Tier) String() string {
	switch t {
	case Tier1Urgent:
		return "tier1"
	case Tier2Standard:
		return "tier2"
	case Tier3Annual:
		return "tier3"
	default:
		return "unknown"
	}
}

// SLA is the delivery window a letter of this tier must meet.
func (t Tier) SLA() time.Duration {
	if t == Tier1Urgent {
		return 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

type LetterStatus string

const (
	LetterGenerated LetterStatus = "generated"
	LetterSent      LetterStatus = "sent"
)

type Document struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Bytes       []byte `json:"-"`
}

type Letter struct {
	ID             string       `json:"id"`
	TemplateID     string       `json:"template_id"`
	Tier           Tier         `json:"tier"`
	SystemID       string       `json:"system_id"`
	SystemName     string       `json:"system_name"`
	ViolationID    string       `json:"violation_id,omitempty"`
	TaskID         string       `json:"task_id,omitempty"`
	EntityKey      string       `json:"entity_key,omitempty"`
	GeneratedAt    time.Time    `json:"generated_at"`
	Status         LetterStatus `json:"status"`
	RecipientCount int          `json:"recipient_count"`
	DueDate        time.Time    `json:"due_date"`
	SentAt         time.Time    `json:"sent_at,omitzero"`
	Document       Document     `json:"document"`
}

type TaskSummary struct {
	PWSID     string `json:"pwsid"`
	Total     int    `json:"total"`
	OnTrack   int    `json:"on_track"`
	Overdue   int    `json:"overdue"`
	Upcoming  int    `json:"upcoming"`
	DueSoon   int    `json:"due_soon"`
	Completed int    `json:"completed"`
	Letters   int    `json:"letters"`
}
