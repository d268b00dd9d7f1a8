package handlers

import (
	"net/http"
	"strings"
	"time"

	"invoicer/internal/models"
	"invoicer/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type documentRequest struct {
	ClientID    string           `json:"client_id"`
	Type        string           `json:"type"`
	Number      string           `json:"number"`
	Status      string           `json:"status"`
	Currency    string           `json:"currency"`
	LineItems   models.LineItems `json:"line_items"`
	VATRate     decimal.Decimal  `json:"vat_rate"`
	IssueDate   string           `json:"issue_date"`
	DueDate     string           `json:"due_date"`
	Notes       string           `json:"notes"`
	PaymentLink string           `json:"payment_link"`
}

type invalidDateError struct {
	field string
}

func (e invalidDateError) Error() string {
	return e.field + " must be a date formatted as YYYY-MM-DD"
}

func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, invalidDateError{field: field}
	}
	return &parsed, nil
}

func (req documentRequest) input() (services.DocumentInput, error) {
	issue, err := parseDate("issue_date", req.IssueDate)
	if err != nil {
		return services.DocumentInput{}, err
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return services.DocumentInput{}, err
	}
	return services.DocumentInput{
		ClientID:    req.ClientID,
		Type:        req.Type,
		Number:      req.Number,
		Status:      req.Status,
		Currency:    req.Currency,
		LineItems:   req.LineItems,
		VATRate:     req.VATRate,
		IssueDate:   issue,
		DueDate:     due,
		Notes:       req.Notes,
		PaymentLink: req.PaymentLink,
	}, nil
}

func (h *Handler) decodeDocument(w http.ResponseWriter, r *http.Request) (services.DocumentInput, bool) {
	var req documentRequest
	if !decodeJSON(w, r, &req) {
		return services.DocumentInput{}, false
	}
	in, err := req.input()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return services.DocumentInput{}, false
	}
	return in, true
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	docs, err := h.documents.List(r.Context(), userID, services.ListFilter{
		Type:     query.Get("type"),
		Status:   query.Get("status"),
		ClientID: query.Get("client_id"),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeDocument(w, r)
	if !ok {
		return
	}
	view, err := h.documents.Create(r.Context(), userID, in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	view, err := h.documents.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeDocument(w, r)
	if !ok {
		return
	}
	view, err := h.documents.Update(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "document", view)
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.documents.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", nil)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := h.documents.ChangeStatus(r.Context(), userID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "document", view)
}

func (h *Handler) ConvertQuote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	view, err := h.documents.Convert(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "document", view)
}

func (h *Handler) VerifyDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	report, err := h.documents.Verify(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) DocumentActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	entries, err := h.documents.Activity(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	summary, err := h.documents.Summary(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
