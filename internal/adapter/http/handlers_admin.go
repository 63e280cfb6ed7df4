package adapthttp

import (
	"net/http"
)

func (s *Server) handleTypesList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"types": s.types.List()})
}

func (s *Server) handleTypesAdd(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.types.Add(r.Context(), body.Name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"types": s.types.List()})
}

func (s *Server) handleTypesRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.types.Remove(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"types": s.types.List()})
}

func (s *Server) handleAdminReadings(w http.ResponseWriter, r *http.Request) {
	items, err := s.readings.All(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAdminAudits(w http.ResponseWriter, r *http.Request) {
	items, err := s.audits.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	items, err := s.users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAssignAdmin(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if err := s.users.AssignAdmin(r.Context(), username); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"username": username, "role": "ADMIN"})
}
