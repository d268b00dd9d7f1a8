package handlers

import (
	"io"
	"net/http"

	"invoicer/internal/models"
	"invoicer/internal/services"
	"invoicer/internal/storage"
)

type profileRequest struct {
	FullName      string `json:"full_name"`
	CompanyName   string `json:"company_name"`
	BrandColor    string `json:"brand_color"`
	BankName      string `json:"bank_name"`
	AccountHolder string `json:"account_holder"`
	IBAN          string `json:"iban"`
	BIC           string `json:"bic"`
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := h.profiles.Update(r.Context(), userID, services.ProfileInput(req))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "profile", profile)
}

func (h *Handler) UpdatePaymentSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req models.PaymentSettings
	if !decodeJSON(w, r, &req) {
		return
	}
	settings, err := h.profiles.UpdatePaymentSettings(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "payment_settings", settings)
}

// UploadLogo reads the "logo" part of a multipart form.
func (h *Handler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxLogoSize+64<<10)
	file, _, err := r.FormFile("logo")
	if err != nil {
		respondError(w, http.StatusBadRequest, "logo file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, storage.MaxLogoSize+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unable to read logo")
		return
	}
	url, err := h.profiles.UploadLogo(r.Context(), userID, data)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "logo_url", url)
}
