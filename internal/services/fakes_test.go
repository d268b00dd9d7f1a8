package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"invoicer/internal/delivery"
	"invoicer/internal/models"
	"invoicer/internal/payments"
	"invoicer/internal/store"
	"invoicer/internal/websocket"

	"github.com/jmoiron/sqlx"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, id, email, passwordHash string) error
	getByEmailFn func(ctx context.Context, email string) (models.User, error)
	getByIDFn    func(ctx context.Context, userID string) (models.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, email, passwordHash)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if s.getByEmailFn == nil {
		return models.User{}, sql.ErrNoRows
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{ID: userID, Email: "owner@acme.test"}, nil
	}
	return s.getByIDFn(ctx, userID)
}

type stubProfileStore struct {
	createFn         func(ctx context.Context, tx store.Execer, userID, fullName string) error
	getFn            func(ctx context.Context, userID string) (models.Profile, error)
	updateFn         func(ctx context.Context, tx store.Execer, profile models.Profile) (int64, error)
	updateSettingsFn func(ctx context.Context, tx store.Execer, userID string, settings models.PaymentSettings) (int64, error)
	updateLogoFn     func(ctx context.Context, tx store.Execer, userID, logoURL string) (int64, error)
}

func (s stubProfileStore) Create(ctx context.Context, tx store.Execer, userID, fullName string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, userID, fullName)
}

func (s stubProfileStore) Get(ctx context.Context, userID string) (models.Profile, error) {
	if s.getFn == nil {
		return models.Profile{UserID: userID, CompanyName: "Acme"}, nil
	}
	return s.getFn(ctx, userID)
}

func (s stubProfileStore) Update(ctx context.Context, tx store.Execer, profile models.Profile) (int64, error) {
	if s.updateFn == nil {
		return 1, nil
	}
	return s.updateFn(ctx, tx, profile)
}

func (s stubProfileStore) UpdatePaymentSettings(ctx context.Context, tx store.Execer, userID string, settings models.PaymentSettings) (int64, error) {
	if s.updateSettingsFn == nil {
		return 1, nil
	}
	return s.updateSettingsFn(ctx, tx, userID, settings)
}

func (s stubProfileStore) UpdateLogo(ctx context.Context, tx store.Execer, userID, logoURL string) (int64, error) {
	if s.updateLogoFn == nil {
		return 1, nil
	}
	return s.updateLogoFn(ctx, tx, userID, logoURL)
}

// memClientStore keeps clients in memory and counts references from a memDocumentStore.
type memClientStore struct {
	mu      sync.Mutex
	clients map[string]models.Client
	docs    *memDocumentStore
}

func newMemClientStore(docs *memDocumentStore, clients ...models.Client) *memClientStore {
	s := &memClientStore{clients: map[string]models.Client{}, docs: docs}
	for _, c := range clients {
		s.clients[c.ID] = c
	}
	return s
}

func (s *memClientStore) Create(_ context.Context, _ store.Execer, client models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client.ID] = client
	return nil
}

func (s *memClientStore) Get(_ context.Context, userID, clientID string) (models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok || c.UserID != userID {
		return models.Client{}, sql.ErrNoRows
	}
	return c, nil
}

func (s *memClientStore) GetByID(_ context.Context, clientID string) (models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok {
		return models.Client{}, sql.ErrNoRows
	}
	return c, nil
}

func (s *memClientStore) List(_ context.Context, userID, search string, limit, offset int) ([]models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Client{}
	for _, c := range s.clients {
		if c.UserID == userID && strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if offset >= len(out) {
		return []models.Client{}, nil
	}
	if offset+limit < len(out) {
		out = out[:offset+limit]
	}
	return out[offset:], nil
}

func (s *memClientStore) Update(_ context.Context, _ store.Execer, client models.Client) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.clients[client.ID]
	if !ok || existing.UserID != client.UserID {
		return 0, nil
	}
	s.clients[client.ID] = client
	return 1, nil
}

func (s *memClientStore) CountDocuments(_ context.Context, _ store.Getter, userID, clientID string) (int, error) {
	if s.docs == nil {
		return 0, nil
	}
	s.docs.mu.Lock()
	defer s.docs.mu.Unlock()
	count := 0
	for _, d := range s.docs.docs {
		if d.UserID == userID && d.ClientID == clientID {
			count++
		}
	}
	return count, nil
}

func (s *memClientStore) Delete(_ context.Context, _ store.Execer, userID, clientID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok || c.UserID != userID {
		return 0, nil
	}
	delete(s.clients, clientID)
	return 1, nil
}

type memDocumentStore struct {
	mu        sync.Mutex
	docs      map[string]models.Document
	updateErr error
}

func newMemDocumentStore(docs ...models.Document) *memDocumentStore {
	s := &memDocumentStore{docs: map[string]models.Document{}}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

func (s *memDocumentStore) Create(_ context.Context, _ store.Execer, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	return nil
}

func (s *memDocumentStore) Get(_ context.Context, userID, documentID string) (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[documentID]
	if !ok || d.UserID != userID {
		return models.Document{}, sql.ErrNoRows
	}
	return d, nil
}

func (s *memDocumentStore) GetPublic(_ context.Context, documentID string) (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[documentID]
	if !ok {
		return models.Document{}, sql.ErrNoRows
	}
	return d, nil
}

func (s *memDocumentStore) List(_ context.Context, userID string, filter store.DocumentFilter) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Document{}
	for _, d := range s.docs {
		if d.UserID != userID {
			continue
		}
		if filter.Type != "" && string(d.Type) != filter.Type {
			continue
		}
		if filter.ClientID != "" && d.ClientID != filter.ClientID {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *memDocumentStore) Update(_ context.Context, _ store.Execer, doc models.Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return 0, s.updateErr
	}
	existing, ok := s.docs[doc.ID]
	if !ok || existing.UserID != doc.UserID {
		return 0, nil
	}
	s.docs[doc.ID] = doc
	return 1, nil
}

func (s *memDocumentStore) Delete(_ context.Context, _ store.Execer, userID, documentID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[documentID]
	if !ok || d.UserID != userID {
		return 0, nil
	}
	delete(s.docs, documentID)
	return 1, nil
}

func (s *memDocumentStore) MaxSequence(_ context.Context, _ store.Getter, userID, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, d := range s.docs {
		if d.UserID != userID || !strings.HasPrefix(d.Number, prefix) {
			continue
		}
		var n int
		for _, r := range strings.TrimPrefix(d.Number, prefix) {
			if r < '0' || r > '9' {
				n = -1
				break
			}
			n = n*10 + int(r-'0')
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

func (s *memDocumentStore) RecordPaymentSubmission(_ context.Context, _ store.Execer, documentID, txHash string, chainID int64, submittedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[documentID]
	if !ok {
		return 0, nil
	}
	d.PaymentTxHash = &txHash
	d.PaymentChainID = &chainID
	d.PaymentSubmittedAt = &submittedAt
	s.docs[documentID] = d
	return 1, nil
}

func (s *memDocumentStore) get(id string) models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[id]
}

type auditCall struct {
	actorID string
	action  string
	entity  string
	data    map[string]any
}

type recordingAudit struct {
	mu      sync.Mutex
	calls   []auditCall
	entries []models.AuditEntry
}

func (a *recordingAudit) Log(_ context.Context, _ store.Execer, actorID, action, _, entityID string, data map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, auditCall{actorID: actorID, action: action, entity: entityID, data: data})
	return nil
}

func (a *recordingAudit) ListForEntity(_ context.Context, _, _ string, _ int) ([]models.AuditEntry, error) {
	return a.entries, nil
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.calls))
	for _, c := range a.calls {
		out = append(out, c.action)
	}
	return out
}

type recordingHub struct {
	mu     sync.Mutex
	events []websocket.DocumentEvent
}

func (h *recordingHub) BroadcastDocument(_ string, event websocket.DocumentEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

type stubMailer struct {
	sent []delivery.Message
	err  error
}

func (m *stubMailer) Send(_ context.Context, msg delivery.Message) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, msg)
	return "email-1", nil
}

type stubReceipts struct {
	status payments.ReceiptStatus
	err    error
}

func (s stubReceipts) Status(context.Context, int64, string) (payments.ReceiptStatus, error) {
	return s.status, s.err
}

type stubLogos struct {
	url string
	err error
}

func (s stubLogos) Upload(context.Context, string, []byte) (string, error) {
	return s.url, s.err
}

// fixture wires every service against in-memory stores.
type fixture struct {
	docs     *memDocumentStore
	clients  *memClientStore
	audit    *recordingAudit
	hub      *recordingHub
	mailer   *stubMailer
	profiles stubProfileStore
	receipts ReceiptChecker
	document *DocumentService
	delivery *DeliveryService
	payment  *PaymentService
}

func newFixture(receipts ReceiptChecker, docs ...models.Document) *fixture {
	f := &fixture{
		docs:   newMemDocumentStore(docs...),
		audit:  &recordingAudit{},
		hub:    &recordingHub{},
		mailer: &stubMailer{},
	}
	f.clients = newMemClientStore(f.docs,
		models.Client{ID: "client-1", UserID: "user-1", Name: "Globex", Email: "ap@globex.test", Phone: "+1 555 010 0000"},
		models.Client{ID: "client-2", UserID: "user-2", Name: "Initech"},
	)
	f.document = NewDocumentService(fakeTxRunner{}, f.docs, f.clients, f.audit, f.hub)
	f.document.now = fixedClock
	if receipts == nil {
		receipts = stubReceipts{status: payments.ReceiptPending}
	}
	f.receipts = receipts
	f.withProfile(models.Profile{UserID: "user-1", CompanyName: "Acme"})
	return f
}

// withProfile makes every profile lookup return p.
func (f *fixture) withProfile(p models.Profile) {
	f.profiles = stubProfileStore{getFn: func(context.Context, string) (models.Profile, error) {
		return p, nil
	}}
	f.delivery = NewDeliveryService(f.document, f.profiles, stubUserStore{}, f.mailer, "Invoicer <invoices@invoicer.test>", func(id string) string {
		return "https://app.test/p/" + id
	})
	f.payment = NewPaymentService(f.document, f.profiles, f.receipts)
}
