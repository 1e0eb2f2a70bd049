package api

import (
	"net/http"

	"watersafe/internal/signup"
)

func (s *Server) countSignup(result string) {
	if s.collectors != nil {
		s.collectors.SignupSends.WithLabelValues(result).Inc()
	}
}

func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req signup.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, signup.Response{Message: "invalid request body"})
		return
	}
	if err := signup.Validate(req); err != nil {
		s.countSignup("invalid")
		writeJSON(w, http.StatusBadRequest, signup.Response{Message: signup.MessageInvalidEmail})
		return
	}
	if !s.throttle.Allow(req.Email) {
		s.countSignup("throttled")
		writeJSON(w, http.StatusTooManyRequests, signup.Response{Message: signup.MessageTooSoon})
		return
	}
	if s.mailer == nil {
		s.throttle.Forget(req.Email)
		s.countSignup("error")
		writeJSON(w, http.StatusInternalServerError, signup.Response{Message: signup.MessageSendFailed})
		return
	}
	if err := s.mailer.Send(r.Context(), signup.Confirmation(req)); err != nil {
		s.throttle.Forget(req.Email)
		s.countSignup("error")
		if s.logger != nil {
			s.logger.Warn("signup confirmation failed", "err", err)
		}
		writeJSON(w, http.StatusInternalServerError, signup.Response{Message: signup.MessageSendFailed})
		return
	}
	s.countSignup("ok")
	writeJSON(w, http.StatusOK, signup.Response{Success: true, Message: signup.MessageSent})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "OK", "message": "Email server is running"})
}
