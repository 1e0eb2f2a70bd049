package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"watersafe/internal/engine"
	"watersafe/internal/mailer"
	"watersafe/internal/model"
)

func (s *Server) handleAutoGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sys, ok := s.lookupSystem(w, r)
	if !ok {
		return
	}
	report := s.engine.AutoGenerate(r.Context(), s.session(w, r), sys)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req engine.GenerateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ViolationID != "" && req.TaskID != "" {
		writeError(w, http.StatusBadRequest, "violation_id and task_id are mutually exclusive")
		return
	}
	sys, ok := s.lookupSystem(w, r)
	if !ok {
		return
	}
	letter, created, err := s.engine.Generate(r.Context(), s.session(w, r), sys, req)
	switch {
	case errors.Is(err, engine.ErrTemplateNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, engine.ErrEntityNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"letter":  letter,
		"created": created,
	})
}

func (s *Server) handleLetters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	session := s.session(w, r)
	q := r.URL.Query()
	var list []model.Letter
	switch {
	case q.Get("since") != "":
		ts, err := time.Parse(time.RFC3339, q.Get("since"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		list = session.Since(ts)
	case q.Get("pwsid") != "":
		list = session.ForSystem(q.Get("pwsid"))
	default:
		limit := 0
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		list = session.List(limit)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"letters": list,
		"count":   len(list),
	})
}

func (s *Server) handleLetter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	letter, ok := s.session(w, r).Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "letter not found")
		return
	}
	writeJSON(w, http.StatusOK, letter)
}

func (s *Server) handleLetterPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	letter, ok := s.session(w, r).Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "letter not found")
		return
	}
	contentType := letter.Document.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+letter.Document.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(letter.Document.Bytes)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(letter.Document.Bytes)
}

func (s *Server) handleLetterSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	letter, err := s.engine.MarkSent(r.Context(), s.session(w, r), r.PathValue("id"), req.Email)
	switch {
	case errors.Is(err, engine.ErrLetterNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrInvalidRecipient):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, mailer.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSON(w, http.StatusOK, letter)
	}
}
