package api

import (
	"fmt"
	"net/http"
	"strconv"

	"watersafe/internal/dataset"
	"watersafe/internal/engine"
	"watersafe/internal/model"
)

type systemBrief struct {
	PWSID            string `json:"pwsid"`
	Name             string `json:"name"`
	Type             string `json:"type,omitempty"`
	PopulationServed int    `json:"population_served"`
	City             string `json:"city,omitempty"`
	Violations       int    `json:"violations"`
	Events           int    `json:"events"`
}

func briefs(systems []model.WaterSystem) []systemBrief {
	out := make([]systemBrief, 0, len(systems))
	for _, sys := range systems {
		out = append(out, systemBrief{
			PWSID:            sys.PWSID,
			Name:             sys.Name,
			Type:             sys.Type,
			PopulationServed: sys.PopulationServed,
			City:             sys.Address.City,
			Violations:       len(sys.Violations),
			Events:           len(sys.Events),
		})
	}
	return out
}

func (s *Server) handleSystems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	list := briefs(ds.Systems)
	writeJSON(w, http.StatusOK, map[string]any{
		"systems": list,
		"count":   len(list),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	kind, ok := dataset.ParseSearchKind(r.URL.Query().Get("by"))
	if !ok {
		writeError(w, http.StatusBadRequest, "by must be one of zip, county, name")
		return
	}
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	list := briefs(ds.Search(kind, r.URL.Query().Get("q")))
	writeJSON(w, http.StatusOK, map[string]any{
		"by":      kind,
		"systems": list,
		"count":   len(list),
	})
}

type violationView struct {
	model.ViolationRecord
	Contaminant *model.ContaminantInfo `json:"contaminant_info,omitempty"`
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	pwsid := r.PathValue("pwsid")
	sys, ok := ds.System(pwsid)
	if !ok {
		writeError(w, http.StatusNotFound, "water system not found: "+pwsid)
		return
	}
	views := make([]violationView, 0, len(sys.Violations))
	for _, v := range sys.Violations {
		view := violationView{ViolationRecord: v}
		if info, ok := ds.Contaminants.Lookup(v.ContaminantName); ok {
			view.Contaminant = &info
		}
		views = append(views, view)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"system":     sys,
		"violations": views,
		"summary":    s.engine.Summary(s.session(w, r), sys),
	})
}

func taskFilter(r *http.Request) (engine.TaskFilter, error) {
	q := r.URL.Query()
	status, ok := engine.ParseStatus(q.Get("status"))
	if !ok {
		return engine.TaskFilter{}, fmt.Errorf("unknown status %q", q.Get("status"))
	}
	return engine.TaskFilter{Status: status, Search: q.Get("q")}, nil
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	filter, err := taskFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sys, ok := s.lookupSystem(w, r)
	if !ok {
		return
	}
	tasks := engine.FilterTasks(s.engine.Tasks(sys), filter)
	writeJSON(w, http.StatusOK, map[string]any{
		"pwsid": sys.PWSID,
		"tasks": tasks,
		"count": len(tasks),
	})
}

func (s *Server) handleTasksCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	filter, err := taskFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sys, ok := s.lookupSystem(w, r)
	if !ok {
		return
	}
	tasks := engine.FilterTasks(s.engine.Tasks(sys), filter)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="compliance-tasks-`+sys.PWSID+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_ = engine.WriteCSV(w, tasks)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sys, ok := s.lookupSystem(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Summary(s.session(w, r), sys))
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sys, ok := s.lookupSystem(w, r)
	if !ok {
		return
	}
	list := s.engine.Candidates(s.session(w, r), sys)
	writeJSON(w, http.StatusOK, map[string]any{
		"pwsid":      sys.PWSID,
		"candidates": list,
		"count":      len(list),
	})
}

func (s *Server) handleContaminants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	list := ds.Contaminants.Filter(q.Get("q"), q.Get("category"))
	writeJSON(w, http.StatusOK, map[string]any{
		"contaminants": list,
		"count":        len(list),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": ds.Contaminants.Categories()})
}

func (s *Server) handleContaminant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	info, ok := ds.Contaminants.Lookup(r.PathValue("name"))
	if !ok {
		writeError(w, http.StatusNotFound, "no guide entry for "+strconv.Quote(r.PathValue("name")))
		return
	}
	writeJSON(w, http.StatusOK, info)
}
