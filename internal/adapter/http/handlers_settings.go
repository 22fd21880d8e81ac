package adapthttp

import (
	"net/http"

	"hydration/internal/app"
)

type settingsRequest struct {
	NotificationsEnabled *bool `json:"notificationsEnabled"`
	DailyGoalML          *int  `json:"dailyGoalMl" validate:"omitempty,gte=100,lte=20000"`
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	uid := userFromContext(r.Context()).ID
	switch r.Method {
	case http.MethodGet:
		st, err := s.settings.Get(r.Context(), uid)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	case http.MethodPatch:
		var body settingsRequest
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.validate.Validate(&body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		st, err := s.settings.Update(r.Context(), uid, app.SettingsPatch{
			NotificationsEnabled: body.NotificationsEnabled,
			DailyGoalML:          body.DailyGoalML,
		})
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
