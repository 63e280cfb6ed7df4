package adapthttp

import (
	"net/http"
)

func (s *Server) handleReadingSubmit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Month  int              `json:"month"`
		Year   int              `json:"year"`
		Values map[string]int64 `json:"values"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	reading, err := s.readings.Submit(r.Context(), caller(r).Username, body.Month, body.Year, body.Values)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reading)
}

func (s *Server) handleReadingHistory(w http.ResponseWriter, r *http.Request) {
	actor := caller(r)
	items, err := s.readings.History(r.Context(), actor, ownerParam(r, actor.Username))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleReadingLatest(w http.ResponseWriter, r *http.Request) {
	actor := caller(r)
	reading, err := s.readings.Latest(r.Context(), actor, ownerParam(r, actor.Username))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func (s *Server) handleReadingForMonth(w http.ResponseWriter, r *http.Request) {
	year, err := intPath(r, "year")
	if err != nil {
		writeError(w, r, err)
		return
	}
	month, err := intPath(r, "month")
	if err != nil {
		writeError(w, r, err)
		return
	}
	actor := caller(r)
	reading, err := s.readings.ForMonth(r.Context(), actor, ownerParam(r, actor.Username), month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func (s *Server) handleConsumption(w http.ResponseWriter, r *http.Request) {
	actor := caller(r)
	items, err := s.consumption.Monthly(r.Context(), actor, ownerParam(r, actor.Username))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
