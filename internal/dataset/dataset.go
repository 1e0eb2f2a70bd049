package dataset

import (
	"sort"
	"strings"
	"time"

	"watersafe/internal/model"
)

// Dataset is one complete, read-only snapshot of both source documents.
type Dataset struct {
	Systems      []model.WaterSystem
	Contaminants Contaminants
	LoadedAt     time.Time

	byID map[string]int
}

func New(systems []model.WaterSystem, contaminants Contaminants, loadedAt time.Time) *Dataset {
	d := &Dataset{
		Systems:      systems,
		Contaminants: contaminants,
		LoadedAt:     loadedAt,
		byID:         make(map[string]int, len(systems)),
	}
	for i, sys := range systems {
		if sys.PWSID == "" {
			continue
		}
		if _, ok := d.byID[sys.PWSID]; !ok {
			d.byID[sys.PWSID] = i
		}
	}
	if d.Contaminants == nil {
		d.Contaminants = Contaminants{}
	}
	return d
}

func (d *Dataset) System(pwsid string) (model.WaterSystem, bool) {
	idx, ok := d.byID[strings.TrimSpace(pwsid)]
	if !ok {
		return model.WaterSystem{}, false
	}
	return d.Systems[idx], true
}

type SearchKind string

const (
	SearchZip    SearchKind = "zip"
	SearchCounty SearchKind = "county"
	SearchName   SearchKind = "name"
)

func ParseSearchKind(s string) (SearchKind, bool) {
	switch SearchKind(strings.ToLower(strings.TrimSpace(s))) {
	case SearchZip, "":
		return SearchZip, true
	case SearchCounty:
		return SearchCounty, true
	case SearchName:
		return SearchName, true
	}
	return "", false
}

// Search matches zip codes exactly and counties and names by
// case-insensitive substring. An empty term matches nothing.
func (d *Dataset) Search(kind SearchKind, term string) []model.WaterSystem {
	term = strings.TrimSpace(term)
	out := make([]model.WaterSystem, 0)
	if term == "" {
		return out
	}
	needle := strings.ToLower(term)
	for _, sys := range d.Systems {
		var hit bool
		switch kind {
		case SearchZip:
			hit = servesZip(sys, term)
		case SearchCounty:
			for _, area := range sys.Areas {
				if strings.Contains(strings.ToLower(area.County), needle) {
					hit = true
					break
				}
			}
		case SearchName:
			hit = strings.Contains(strings.ToLower(sys.Name), needle)
		}
		if hit {
			out = append(out, sys)
		}
	}
	return out
}

func servesZip(sys model.WaterSystem, zip string) bool {
	for _, area := range sys.Areas {
		if strings.TrimSpace(area.ZipCode) == zip {
			return true
		}
	}
	return strings.TrimSpace(sys.Address.Zip) == zip
}

// Counties lists the distinct counties served, sorted.
func (d *Dataset) Counties() []string {
	seen := map[string]struct{}{}
	for _, sys := range d.Systems {
		for _, area := range sys.Areas {
			if c := strings.TrimSpace(area.County); c != "" {
				seen[c] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
