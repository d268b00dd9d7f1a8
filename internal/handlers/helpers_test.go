package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"invoicer/internal/auth"
	"invoicer/internal/config"
	"invoicer/internal/models"
	"invoicer/internal/payments"
	"invoicer/internal/reports"
	"invoicer/internal/services"
	"invoicer/internal/websocket"
)

type stubAccounts struct {
	registerFn func(ctx context.Context, req services.RegisterRequest) (services.Session, error)
	loginFn    func(ctx context.Context, email, password string) (services.Session, error)
	meFn       func(ctx context.Context, userID string) (models.User, error)
}

func (s stubAccounts) Register(ctx context.Context, req services.RegisterRequest) (services.Session, error) {
	if s.registerFn == nil {
		return services.Session{}, nil
	}
	return s.registerFn(ctx, req)
}

func (s stubAccounts) Login(ctx context.Context, email, password string) (services.Session, error) {
	if s.loginFn == nil {
		return services.Session{}, nil
	}
	return s.loginFn(ctx, email, password)
}

func (s stubAccounts) Me(ctx context.Context, userID string) (models.User, error) {
	if s.meFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.meFn(ctx, userID)
}

type stubProfiles struct {
	getFn        func(ctx context.Context, userID string) (models.Profile, error)
	updateFn     func(ctx context.Context, userID string, in services.ProfileInput) (models.Profile, error)
	settingsFn   func(ctx context.Context, userID string, settings models.PaymentSettings) (models.PaymentSettings, error)
	uploadLogoFn func(ctx context.Context, userID string, data []byte) (string, error)
}

func (s stubProfiles) Get(ctx context.Context, userID string) (models.Profile, error) {
	if s.getFn == nil {
		return models.Profile{UserID: userID}, nil
	}
	return s.getFn(ctx, userID)
}

func (s stubProfiles) Update(ctx context.Context, userID string, in services.ProfileInput) (models.Profile, error) {
	if s.updateFn == nil {
		return models.Profile{UserID: userID}, nil
	}
	return s.updateFn(ctx, userID, in)
}

func (s stubProfiles) UpdatePaymentSettings(ctx context.Context, userID string, settings models.PaymentSettings) (models.PaymentSettings, error) {
	if s.settingsFn == nil {
		return settings, nil
	}
	return s.settingsFn(ctx, userID, settings)
}

func (s stubProfiles) UploadLogo(ctx context.Context, userID string, data []byte) (string, error) {
	if s.uploadLogoFn == nil {
		return "", nil
	}
	return s.uploadLogoFn(ctx, userID, data)
}

type stubClients struct {
	createFn func(ctx context.Context, userID string, in services.ClientInput) (models.Client, error)
	getFn    func(ctx context.Context, userID, clientID string) (models.Client, error)
	listFn   func(ctx context.Context, userID, search string, limit, offset int) ([]models.Client, error)
	updateFn func(ctx context.Context, userID, clientID string, in services.ClientInput) (models.Client, error)
	deleteFn func(ctx context.Context, userID, clientID string) error
}

func (s stubClients) Create(ctx context.Context, userID string, in services.ClientInput) (models.Client, error) {
	if s.createFn == nil {
		return models.Client{}, nil
	}
	return s.createFn(ctx, userID, in)
}

func (s stubClients) Get(ctx context.Context, userID, clientID string) (models.Client, error) {
	if s.getFn == nil {
		return models.Client{}, nil
	}
	return s.getFn(ctx, userID, clientID)
}

func (s stubClients) List(ctx context.Context, userID, search string, limit, offset int) ([]models.Client, error) {
	if s.listFn == nil {
		return []models.Client{}, nil
	}
	return s.listFn(ctx, userID, search, limit, offset)
}

func (s stubClients) Update(ctx context.Context, userID, clientID string, in services.ClientInput) (models.Client, error) {
	if s.updateFn == nil {
		return models.Client{}, nil
	}
	return s.updateFn(ctx, userID, clientID, in)
}

func (s stubClients) Delete(ctx context.Context, userID, clientID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, userID, clientID)
}

type stubDocuments struct {
	createFn   func(ctx context.Context, userID string, in services.DocumentInput) (services.DocumentView, error)
	getFn      func(ctx context.Context, userID, documentID string) (services.DocumentView, error)
	listFn     func(ctx context.Context, userID string, filter services.ListFilter) ([]services.DocumentView, error)
	updateFn   func(ctx context.Context, userID, documentID string, in services.DocumentInput) (services.DocumentView, error)
	deleteFn   func(ctx context.Context, userID, documentID string) error
	statusFn   func(ctx context.Context, userID, documentID, status string) (services.DocumentView, error)
	convertFn  func(ctx context.Context, userID, quoteID string) (services.DocumentView, error)
	verifyFn   func(ctx context.Context, userID, documentID string) (services.VerificationReport, error)
	activityFn func(ctx context.Context, userID, documentID string) ([]models.AuditEntry, error)
	summaryFn  func(ctx context.Context, userID string) (reports.Summary, error)
}

func (s stubDocuments) Create(ctx context.Context, userID string, in services.DocumentInput) (services.DocumentView, error) {
	if s.createFn == nil {
		return services.DocumentView{}, nil
	}
	return s.createFn(ctx, userID, in)
}

func (s stubDocuments) Get(ctx context.Context, userID, documentID string) (services.DocumentView, error) {
	if s.getFn == nil {
		return services.DocumentView{}, nil
	}
	return s.getFn(ctx, userID, documentID)
}

func (s stubDocuments) List(ctx context.Context, userID string, filter services.ListFilter) ([]services.DocumentView, error) {
	if s.listFn == nil {
		return []services.DocumentView{}, nil
	}
	return s.listFn(ctx, userID, filter)
}

func (s stubDocuments) Update(ctx context.Context, userID, documentID string, in services.DocumentInput) (services.DocumentView, error) {
	if s.updateFn == nil {
		return services.DocumentView{}, nil
	}
	return s.updateFn(ctx, userID, documentID, in)
}

func (s stubDocuments) Delete(ctx context.Context, userID, documentID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, userID, documentID)
}

func (s stubDocuments) ChangeStatus(ctx context.Context, userID, documentID, status string) (services.DocumentView, error) {
	if s.statusFn == nil {
		return services.DocumentView{}, nil
	}
	return s.statusFn(ctx, userID, documentID, status)
}

func (s stubDocuments) Convert(ctx context.Context, userID, quoteID string) (services.DocumentView, error) {
	if s.convertFn == nil {
		return services.DocumentView{}, nil
	}
	return s.convertFn(ctx, userID, quoteID)
}

func (s stubDocuments) Verify(ctx context.Context, userID, documentID string) (services.VerificationReport, error) {
	if s.verifyFn == nil {
		return services.VerificationReport{}, nil
	}
	return s.verifyFn(ctx, userID, documentID)
}

func (s stubDocuments) Activity(ctx context.Context, userID, documentID string) ([]models.AuditEntry, error) {
	if s.activityFn == nil {
		return []models.AuditEntry{}, nil
	}
	return s.activityFn(ctx, userID, documentID)
}

func (s stubDocuments) Summary(ctx context.Context, userID string) (reports.Summary, error) {
	if s.summaryFn == nil {
		return reports.Summary{}, nil
	}
	return s.summaryFn(ctx, userID)
}

type stubDelivery struct {
	sendFn      func(ctx context.Context, userID, documentID string) (services.DeliveryResult, error)
	remindFn    func(ctx context.Context, userID, documentID string) (services.DeliveryResult, error)
	whatsappFn  func(ctx context.Context, userID, documentID string) (services.ShareLink, error)
	pdfFn       func(ctx context.Context, userID, documentID string) (models.Document, []byte, error)
	publicPDFFn func(ctx context.Context, documentID string) (models.Document, []byte, error)
}

func (s stubDelivery) Send(ctx context.Context, userID, documentID string) (services.DeliveryResult, error) {
	if s.sendFn == nil {
		return services.DeliveryResult{}, nil
	}
	return s.sendFn(ctx, userID, documentID)
}

func (s stubDelivery) Remind(ctx context.Context, userID, documentID string) (services.DeliveryResult, error) {
	if s.remindFn == nil {
		return services.DeliveryResult{}, nil
	}
	return s.remindFn(ctx, userID, documentID)
}

func (s stubDelivery) WhatsApp(ctx context.Context, userID, documentID string) (services.ShareLink, error) {
	if s.whatsappFn == nil {
		return services.ShareLink{}, nil
	}
	return s.whatsappFn(ctx, userID, documentID)
}

func (s stubDelivery) PDF(ctx context.Context, userID, documentID string) (models.Document, []byte, error) {
	if s.pdfFn == nil {
		return models.Document{}, nil, nil
	}
	return s.pdfFn(ctx, userID, documentID)
}

func (s stubDelivery) PublicPDF(ctx context.Context, documentID string) (models.Document, []byte, error) {
	if s.publicPDFFn == nil {
		return models.Document{}, nil, nil
	}
	return s.publicPDFFn(ctx, documentID)
}

type stubPayments struct {
	viewFn        func(ctx context.Context, documentID string) (services.PublicDocument, error)
	destinationFn func(ctx context.Context, documentID string) (payments.Destination, error)
	intentFn      func(ctx context.Context, documentID string) (payments.Intent, error)
	recordFn      func(ctx context.Context, documentID string, report services.WalletReport) (services.Submission, error)
	confirmFn     func(ctx context.Context, userID, documentID string) (services.DocumentView, error)
}

func (s stubPayments) PublicView(ctx context.Context, documentID string) (services.PublicDocument, error) {
	if s.viewFn == nil {
		return services.PublicDocument{}, nil
	}
	return s.viewFn(ctx, documentID)
}

func (s stubPayments) Destination(ctx context.Context, documentID string) (payments.Destination, error) {
	if s.destinationFn == nil {
		return payments.Destination{}, nil
	}
	return s.destinationFn(ctx, documentID)
}

func (s stubPayments) Intent(ctx context.Context, documentID string) (payments.Intent, error) {
	if s.intentFn == nil {
		return payments.Intent{}, nil
	}
	return s.intentFn(ctx, documentID)
}

func (s stubPayments) RecordPayment(ctx context.Context, documentID string, report services.WalletReport) (services.Submission, error) {
	if s.recordFn == nil {
		return services.Submission{}, nil
	}
	return s.recordFn(ctx, documentID, report)
}

func (s stubPayments) Confirm(ctx context.Context, userID, documentID string) (services.DocumentView, error) {
	if s.confirmFn == nil {
		return services.DocumentView{}, nil
	}
	return s.confirmFn(ctx, userID, documentID)
}

// testDeps lets each test override only the services it exercises.
type testDeps struct {
	accounts  stubAccounts
	profiles  stubProfiles
	clients   stubClients
	documents stubDocuments
	delivery  stubDelivery
	payments  stubPayments
}

func newTestHandler(deps testDeps) http.Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
		PublicBaseURL:  "https://app.test",
	}
	return New(cfg, deps.accounts, deps.profiles, deps.clients, deps.documents, deps.delivery, deps.payments, websocket.NewHub()).Routes()
}

func authToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

// do sends a request through the router. An empty userID sends no token.
func do(t *testing.T, handler http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+authToken(t, userID))
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}
