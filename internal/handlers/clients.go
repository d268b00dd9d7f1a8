package handlers

import (
	"net/http"

	"invoicer/internal/services"

	"github.com/go-chi/chi/v5"
)

type clientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (req clientRequest) input() services.ClientInput {
	return services.ClientInput{Name: req.Name, Email: req.Email, Address: req.Address, Phone: req.Phone}
}

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	clients, err := h.clients.List(r.Context(), userID, r.URL.Query().Get("search"), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, clients)
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req clientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	client, err := h.clients.Create(r.Context(), userID, req.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, client)
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	client, err := h.clients.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req clientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	client, err := h.clients.Update(r.Context(), userID, chi.URLParam(r, "id"), req.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "client", client)
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.clients.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", nil)
}
