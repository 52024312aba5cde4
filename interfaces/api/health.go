package api

import "net/http"

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// handleHealth reports liveness. Component degradation (an unreachable cache
// backend, stale flags) is reported in the body but never turns the response
// non-200: the service keeps serving forecasts without them.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := healthResponse{Status: "ok"}
	if len(s.health) > 0 {
		response.Components = make(map[string]string, len(s.health))
		for _, check := range s.health {
			response.Components[check.Name] = check.Check(r.Context())
		}
	}
	s.writeJSON(w, http.StatusOK, response)
}
