package dataset

import (
	"sort"
	"strings"

	"watersafe/internal/model"
)

// Contaminants is the contaminant guide keyed by the name used in violation
// records.
type Contaminants map[string]model.ContaminantInfo

func (c Contaminants) keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup tries an exact key first, then the first key (in sorted order) that
// contains the term, is contained by it, or whose display name contains it.
func (c Contaminants) Lookup(name string) (model.ContaminantInfo, bool) {
	if info, ok := c[name]; ok {
		return info, true
	}
	term := strings.ToLower(strings.TrimSpace(name))
	if term == "" {
		return model.ContaminantInfo{}, false
	}
	for _, key := range c.keys() {
		k := strings.ToLower(key)
		info := c[key]
		if strings.Contains(k, term) || strings.Contains(term, k) || strings.Contains(strings.ToLower(info.Name), term) {
			return info, true
		}
	}
	return model.ContaminantInfo{}, false
}

func (c Contaminants) Categories() []string {
	seen := map[string]struct{}{}
	for _, info := range c {
		if info.Category != "" {
			seen[info.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// Filter returns guide entries whose key, name or description contains
// search and whose category equals category. "" and "all" disable a filter.
func (c Contaminants) Filter(search, category string) []model.ContaminantInfo {
	search = strings.ToLower(strings.TrimSpace(search))
	category = strings.TrimSpace(category)
	if strings.EqualFold(category, "all") {
		category = ""
	}
	out := make([]model.ContaminantInfo, 0)
	for _, key := range c.keys() {
		info := c[key]
		if category != "" && info.Category != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(key), search) &&
			!strings.Contains(strings.ToLower(info.Name), search) &&
			!strings.Contains(strings.ToLower(info.Description), search) {
			continue
		}
		out = append(out, info)
	}
	return out
}
