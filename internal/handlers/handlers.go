package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"invoicer/internal/delivery"
	"invoicer/internal/middleware"
	"invoicer/internal/services"
	"invoicer/internal/storage"

	"github.com/lib/pq"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "error": message})
}

// respondSuccess is the reply of action endpoints.
func respondSuccess(w http.ResponseWriter, status int, key string, payload any) {
	body := map[string]any{"success": true}
	if key != "" {
		body[key] = payload
	}
	respondJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dest); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return value
}

// respondServiceError maps service failures onto HTTP statuses. Server-side
// failures are logged and replaced with a generic message.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var pqErr *pq.Error
	switch {
	case errors.Is(err, services.ErrAuthenticationRequired), errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrClientInUse),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrWalletCancelled):
		respondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &pqErr) && pqErr.Code == "23505":
		respondError(w, http.StatusConflict, "a record with the same number already exists")
	case errors.Is(err, services.ErrPaymentPending):
		respondJSON(w, http.StatusAccepted, map[string]any{"success": false, "pending": true, "error": err.Error()})
	case errors.Is(err, services.ErrWalletFailed):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, delivery.ErrMailerDisabled), errors.Is(err, storage.ErrStorageDisabled):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, services.ErrDelivery):
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		respondError(w, http.StatusBadGateway, "delivery failed")
	case errors.Is(err, services.ErrChainUnavailable):
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		respondError(w, http.StatusBadGateway, "chain node unavailable")
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
