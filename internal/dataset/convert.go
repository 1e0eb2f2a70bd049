package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"watersafe/internal/model"
)

// fields is a decoded JSON object with lower-cased keys. Exports from
// different pipelines disagree on casing and on which alias carries a value.
type fields map[string]any

func lowerKeys(obj map[string]any) fields {
	out := make(fields, len(obj))
	for key, val := range obj {
		out[strings.ToLower(key)] = val
	}
	return out
}

func (f fields) str(keys ...string) string {
	for _, k := range keys {
		if v, ok := f[k]; ok {
			if s := strings.TrimSpace(asString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func (f fields) boolean(keys ...string) bool {
	for _, k := range keys {
		if v, ok := f[k]; ok && v != nil {
			return asBool(v)
		}
	}
	return false
}

func (f fields) integer(keys ...string) int {
	for _, k := range keys {
		if v, ok := f[k]; ok && v != nil {
			if n, ok := asInt(v); ok {
				return n
			}
		}
	}
	return 0
}

func (f fields) object(key string) fields {
	if m, ok := f[key].(map[string]any); ok {
		return lowerKeys(m)
	}
	return fields{}
}

func (f fields) list(keys ...string) []fields {
	for _, k := range keys {
		items, ok := f[k].([]any)
		if !ok {
			continue
		}
		out := make([]fields, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				out = append(out, lowerKeys(m))
			}
		}
		return out
	}
	return nil
}

func (f fields) strings(key string) []string {
	switch v := f[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(asString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "y", "yes", "1":
			return true
		}
	}
	return false
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

func systemFromMap(obj map[string]any) model.WaterSystem {
	f := lowerKeys(obj)
	contact := f.object("contact")
	address := f.object("address")
	sys := model.WaterSystem{
		PWSID:            f.str("pwsid", "id"),
		Name:             f.str("name", "pws_name"),
		Type:             f.str("type", "pws_type"),
		PrimarySource:    f.str("primary_source", "primarysource"),
		PopulationServed: f.integer("population_served", "population", "populationserved"),
		Contact: model.Contact{
			Organization: contact.str("organization", "org_name"),
			AdminName:    contact.str("admin_name", "name"),
			Email:        contact.str("email", "email_addr"),
			Phone:        contact.str("phone", "phone_number"),
		},
		Address: model.Address{
			City:  address.str("city", "city_name"),
			State: address.str("state", "state_code"),
			Zip:   address.str("zip", "zip_code"),
		},
	}
	for _, area := range f.list("geographic_areas") {
		sys.Areas = append(sys.Areas, model.GeographicArea{
			County:  area.str("county", "county_served"),
			City:    area.str("city", "city_served"),
			ZipCode: area.str("zip_code", "zip_code_served"),
		})
	}
	// flat public-dashboard shape: {"county": "...", "zipCodes": [...]}
	if county := f.str("county"); county != "" {
		sys.Areas = append(sys.Areas, model.GeographicArea{County: county})
	}
	for _, zip := range f.strings("zipcodes") {
		sys.Areas = append(sys.Areas, model.GeographicArea{ZipCode: zip})
	}
	for _, v := range f.list("violations_enforcement", "violations") {
		sys.Violations = append(sys.Violations, violationFromFields(v))
	}
	for _, ev := range f.list("events_milestones", "events") {
		sys.Events = append(sys.Events, eventFromFields(ev))
	}
	return sys
}

func violationFromFields(f fields) model.ViolationRecord {
	return model.ViolationRecord{
		ViolationID:       f.str("violation_id", "id"),
		ViolationCode:     f.str("violation_code"),
		ViolationCategory: f.str("violation_category", "violation_category_code"),
		ViolationType:     f.str("violation_type", "type"),
		ContaminantCode:   f.str("contaminant_code"),
		ContaminantName:   f.str("contaminant_name", "contaminant"),
		ComplianceStatus:  f.str("compliance_status"),
		Status:            f.str("status", "violation_status"),
		BeginDate:         f.str("violation_begin_date", "begin_date"),
		EndDate:           f.str("violation_end_date", "end_date"),
		ResolvedDate:      f.str("violation_resolved_date", "resolved_date"),
		FirstReported:     f.str("first_reported", "first_reported_date"),
		RequiresAction:    f.boolean("requires_action"),
		Priority:          f.str("priority"),
	}
}

func eventFromFields(f fields) model.EventRecord {
	return model.EventRecord{
		ScheduleID:    f.str("event_schedule_id", "id"),
		MilestoneCode: f.str("event_milestone_code", "milestone_code"),
		ReasonCode:    f.str("event_reason_code", "reason_code"),
		EndDate:       f.str("event_end_date", "end_date"),
		ActualDate:    f.str("event_actual_date", "actual_date"),
		Comments:      f.str("event_comments", "comments"),
	}
}

func contaminantFromMap(key string, obj map[string]any) model.ContaminantInfo {
	f := lowerKeys(obj)
	info := model.ContaminantInfo{
		Code:          f.str("code"),
		Name:          f.str("name"),
		Description:   f.str("description"),
		HealthEffects: f.str("healtheffects", "health_effects"),
		WhatToDo:      f.str("whattodo", "what_to_do"),
		Sources:       f.strings("sources"),
		MCL:           f.str("mcl"),
		Category:      f.str("category"),
	}
	if info.Code == "" {
		info.Code = key
	}
	if info.Name == "" {
		info.Name = key
	}
	return info
}
