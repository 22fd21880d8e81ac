package adapthttp

import (
	"net/http"
)

type recordRequest struct {
	AmountML int `json:"amountMl" validate:"required,gte=1,lte=5000"`
}

// dayRequest selects a day; empty means today.
type dayRequest struct {
	Day string `json:"day" validate:"omitempty,datetime=2006-01-02"`
}

func (s *Server) handleIntakeRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body recordRequest
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.validate.Validate(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.intake.Record(r.Context(), userFromContext(r.Context()).ID, body.AmountML)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleIntakeToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	total, err := s.intake.GetTotal(r.Context(), userFromContext(r.Context()).ID, r.URL.Query().Get("day"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, total)
}

func (s *Server) handleIntakeReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body dayRequest
	if err := parseOptionalJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.validate.Validate(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	day, err := s.intake.Reset(r.Context(), userFromContext(r.Context()).ID, body.Day)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "day": day, "totalMl": 0})
}

func (s *Server) handleIntakeUndoLast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body dayRequest
	if err := parseOptionalJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.validate.Validate(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.intake.UndoLast(r.Context(), userFromContext(r.Context()).ID, body.Day)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleIntakeStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	stats, err := s.intake.DayStats(r.Context(), userFromContext(r.Context()).ID, r.URL.Query().Get("day"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
