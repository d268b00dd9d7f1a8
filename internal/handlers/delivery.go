package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"invoicer/internal/models"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) SendDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	result, err := h.delivery.Send(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "delivery", result)
}

func (h *Handler) RemindDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	result, err := h.delivery.Remind(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "delivery", result)
}

func (h *Handler) WhatsAppLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	link, err := h.delivery.WhatsApp(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, link)
}

func (h *Handler) DocumentPDF(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	doc, data, err := h.delivery.PDF(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writePDF(w, doc, data)
}

func (h *Handler) PublicPDF(w http.ResponseWriter, r *http.Request) {
	doc, data, err := h.delivery.PublicPDF(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writePDF(w, doc, data)
}

func writePDF(w http.ResponseWriter, doc models.Document, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Number+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
