package handlers

import (
	"net/http"

	"invoicer/internal/auth"
	"invoicer/internal/middleware"
	"invoicer/internal/websocket"
)

// WSDocuments streams document events to their owner. The token is read from
// the query string or a Bearer header.
func (h *Handler) WSDocuments(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = middleware.BearerToken(r)
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID, h.cfg.Origins())
}
