package server

import (
	"net/http"
	"time"

	"github.com/waypointhq/waypoint-core/voice/speechtotext/iflytek"
)

// handleVoiceToken signs a fresh recognition endpoint for the authenticated
// user. Signed URLs are single-use and short-lived; the client requests a new
// one per session.
func (s *Server) handleVoiceToken(w http.ResponseWriter, _ *http.Request) {
	endpoint, err := iflytek.SignEndpoint(s.credentials, time.Now())
	if err != nil {
		logger.Error("failed to sign recognition endpoint", "error", err)
		writeError(w, http.StatusServiceUnavailable, "voice recognition is not configured")
		return
	}
	writeJSON(w, http.StatusOK, endpoint)
}
