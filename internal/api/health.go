package api

import "net/http"

// healthResponse is the fixed liveness payload.
type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// handleHealth is the liveness probe. It reports process health only; no
// upstream call is made.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: s.cfg.ServiceName,
	})
}
