package server

import "net/http"

type parseRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleParseTrip(w http.ResponseWriter, r *http.Request) {
	var body parseRequest
	if err := readJSON(r, &body); err != nil || body.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if s.planner == nil {
		writeError(w, http.StatusServiceUnavailable, "parsing is not configured")
		return
	}

	draft, err := s.planner.ParseTrip(r.Context(), body.Text)
	if err != nil {
		logger.Error("failed to parse trip", "error", err)
		writeError(w, http.StatusBadGateway, "failed to parse the transcript")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleParseExpense(w http.ResponseWriter, r *http.Request) {
	var body parseRequest
	if err := readJSON(r, &body); err != nil || body.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if s.planner == nil {
		writeError(w, http.StatusServiceUnavailable, "parsing is not configured")
		return
	}

	draft, err := s.planner.ParseExpense(r.Context(), body.Text)
	if err != nil {
		logger.Error("failed to parse expense", "error", err)
		writeError(w, http.StatusBadGateway, "failed to parse the transcript")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}
