package adapthttp

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"hydration/internal/app"
)

type profileRequest struct {
	Name string `json:"name" validate:"max=64"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	uid := userFromContext(r.Context()).ID
	switch r.Method {
	case http.MethodGet:
		p, err := s.profile.Get(r.Context(), uid)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPut:
		var body profileRequest
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		// Surrounding whitespace never counts toward the length limit.
		body.Name = strings.TrimSpace(body.Name)
		if err := s.validate.Validate(&body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		p, err := s.profile.Save(r.Context(), uid, body.Name)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		if err := s.profile.Clear(r.Context(), uid); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleProfileImage(w http.ResponseWriter, r *http.Request) {
	uid := userFromContext(r.Context()).ID
	switch r.Method {
	case http.MethodGet:
		img, err := s.profile.Image(r.Context(), uid)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", img.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(img.Data)
	case http.MethodPut:
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, app.MaxImageBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, app.ErrInvalidImage)
				return
			}
			writeError(w, http.StatusBadRequest, err)
			return
		}
		p, err := s.profile.SetImage(r.Context(), uid, data)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
