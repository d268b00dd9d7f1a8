package handlers

import (
	"net/http"

	"invoicer/internal/services"

	"github.com/go-chi/chi/v5"
)

// Public routes are addressed by the document uuid alone.

func (h *Handler) PublicDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.payments.PublicView(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (h *Handler) PublicPayment(w http.ResponseWriter, r *http.Request) {
	destination, err := h.payments.Destination(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, destination)
}

func (h *Handler) CryptoIntent(w http.ResponseWriter, r *http.Request) {
	intent, err := h.payments.Intent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "intent", intent)
}

type cryptoPaymentRequest struct {
	TxHash       string `json:"tx_hash"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (h *Handler) CryptoPayment(w http.ResponseWriter, r *http.Request) {
	var req cryptoPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	submission, err := h.payments.RecordPayment(r.Context(), chi.URLParam(r, "id"), services.WalletReport{
		TxHash:       req.TxHash,
		ErrorCode:    req.ErrorCode,
		ErrorMessage: req.ErrorMessage,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusAccepted, "payment", submission)
}

func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	view, err := h.payments.Confirm(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "document", view)
}
