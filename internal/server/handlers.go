package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Fatal777/invoisaic/internal/decision"
	"github.com/Fatal777/invoisaic/internal/notifications"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleDecide runs the full decision pipeline for one request. The
// engine itself never fails; only a malformed body is a client error.
func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decision.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Category == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}
	if !req.Category.Known() {
		writeError(w, http.StatusBadRequest, "unknown category: "+string(req.Category))
		return
	}
	if req.Urgency == "" {
		req.Urgency = decision.UrgencyMedium
	}

	d := s.engine.Decide(r.Context(), req)
	writeJSON(w, http.StatusOK, d)
}

// handleListDecisions returns recent learning records for a category.
func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	category := decision.Category(r.URL.Query().Get("category"))
	if category == "" {
		writeError(w, http.StatusBadRequest, "category query parameter is required")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.store.Query(r.Context(), category, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "querying records: "+err.Error())
		return
	}
	if records == nil {
		records = []decision.LearningRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleAssessFraud runs the fraud sub-engine standalone.
func (s *Server) handleAssessFraud(w http.ResponseWriter, r *http.Request) {
	var req decision.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Category == "" {
		req.Category = decision.CategoryFraudCheck
	}

	writeJSON(w, http.StatusOK, s.fraud.Assess(r.Context(), req))
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	list, err := s.notifs.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing notifications: "+err.Error())
		return
	}
	if list == nil {
		list = []notifications.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddSubscriber(w http.ResponseWriter, r *http.Request) {
	var sub notifications.Subscriber
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if sub.WebhookURL == "" {
		writeError(w, http.StatusBadRequest, "webhook_url is required")
		return
	}

	id, err := s.notifs.AddSubscriber(r.Context(), sub)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "adding subscriber: "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}
