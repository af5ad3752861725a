package notification

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"hooknotify_backend/internal/gateway"
	"hooknotify_backend/internal/host"
	"hooknotify_backend/internal/notification/repository"
	"hooknotify_backend/internal/rules"
	"hooknotify_backend/platform/apperr"
	"hooknotify_backend/platform/logger"
)

const (
	testClientID    = int64(1)
	testInvoiceID   = int64(100)
	testConsentFld  = int64(7)
	testPhoneDigits = "5511987654321"
	queuedReply     = `{"result":"success","status_result":"message_queued","messageid":555}`
)

// testNow is a Wednesday.
var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

type fieldKey struct{ field, client int64 }

type fakeHost struct {
	clients  map[int64]host.Client
	invoices map[int64]host.Invoice
	tickets  map[int64]host.Ticket
	services map[int64]host.Service
	fields   map[fieldKey]string
	activity host.ActivityEntry

	clientErr error
	calls     int
}

func (h *fakeHost) Client(_ context.Context, id int64) (host.Client, error) {
	h.calls++
	if h.clientErr != nil {
		return host.Client{}, h.clientErr
	}
	c, ok := h.clients[id]
	if !ok {
		return host.Client{}, apperr.NotFound("client not found")
	}
	return c, nil
}

func (h *fakeHost) Invoice(_ context.Context, id int64) (host.Invoice, error) {
	h.calls++
	inv, ok := h.invoices[id]
	if !ok {
		return host.Invoice{}, apperr.NotFound("invoice not found")
	}
	return inv, nil
}

func (h *fakeHost) Ticket(_ context.Context, id int64) (host.Ticket, error) {
	h.calls++
	t, ok := h.tickets[id]
	if !ok {
		return host.Ticket{}, apperr.NotFound("ticket not found")
	}
	return t, nil
}

func (h *fakeHost) Service(_ context.Context, id int64) (host.Service, error) {
	h.calls++
	s, ok := h.services[id]
	if !ok {
		return host.Service{}, apperr.NotFound("service not found")
	}
	return s, nil
}

func (h *fakeHost) CustomFieldValue(_ context.Context, fieldID, clientID int64) (string, error) {
	h.calls++
	return h.fields[fieldKey{fieldID, clientID}], nil
}

func (h *fakeHost) LatestSystemActivity(context.Context) (host.ActivityEntry, error) {
	h.calls++
	return h.activity, nil
}

type fakeConfigs struct {
	cfg     *repository.ModuleConfig
	loadErr error
	saved   []repository.ModuleConfig
	account *repository.AccountSnapshot
}

func (f *fakeConfigs) Load(context.Context) (*repository.ModuleConfig, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.cfg == nil {
		return nil, nil
	}
	cfg := *f.cfg
	return &cfg, nil
}

func (f *fakeConfigs) Save(_ context.Context, cfg repository.ModuleConfig) error {
	f.saved = append(f.saved, cfg)
	f.cfg = &cfg
	return nil
}

func (f *fakeConfigs) SaveAccount(_ context.Context, snapshot repository.AccountSnapshot) error {
	f.account = &snapshot
	return nil
}

type fakeTemplates struct {
	byCode map[string]repository.Template
	calls  int
}

func (f *fakeTemplates) TemplateByCode(_ context.Context, code string) (repository.Template, error) {
	f.calls++
	t, ok := f.byCode[code]
	if !ok {
		return repository.Template{}, apperr.NotFound("template not found")
	}
	return t, nil
}

func (f *fakeTemplates) TemplateByID(_ context.Context, id int64) (repository.Template, error) {
	f.calls++
	for _, t := range f.byCode {
		if t.ID == id {
			return t, nil
		}
	}
	return repository.Template{}, apperr.NotFound("template not found")
}

func (f *fakeTemplates) ListTemplates(context.Context) ([]repository.Template, error) {
	out := make([]repository.Template, 0, len(f.byCode))
	for _, t := range f.byCode {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTemplates) UpdateTemplate(ctx context.Context, id int64, message string, enabled bool) (repository.Template, error) {
	t, err := f.TemplateByID(ctx, id)
	if err != nil {
		return t, err
	}
	t.Message, t.Enabled = message, enabled
	f.byCode[t.Code] = t
	return t, nil
}

func (f *fakeTemplates) UpdateRules(ctx context.Context, id int64, cfg *rules.Config) (repository.Template, error) {
	t, err := f.TemplateByID(ctx, id)
	if err != nil {
		return t, err
	}
	t.Rules = cfg
	f.byCode[t.Code] = t
	return t, nil
}

func (f *fakeTemplates) SeedTemplates(_ context.Context, seeds []repository.SeedTemplate) error {
	for i, s := range seeds {
		if _, ok := f.byCode[s.Code]; ok {
			continue
		}
		f.byCode[s.Code] = repository.Template{ID: int64(1000 + i), Code: s.Code, Message: s.Message}
	}
	return nil
}

type fakeLogs struct {
	entries  []repository.LogEntry
	cleared  int
	clearErr error
}

func (f *fakeLogs) Append(_ context.Context, entry repository.LogEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLogs) List(_ context.Context, limit int) ([]repository.LogEntry, error) {
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeLogs) Clear(context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared++
	f.entries = nil
	return nil
}

type fakeAudit struct {
	lines []string
}

func (f *fakeAudit) Record(_ context.Context, _ int64, line string) error {
	f.lines = append(f.lines, line)
	return nil
}

type fakeBillets struct {
	url   string
	found bool
	err   error
}

func (f fakeBillets) BilletURL(context.Context, int64) (string, bool, error) {
	return f.url, f.found, f.err
}

type fakeLock struct {
	taken    map[string]bool
	err      error
	released []string
}

func (f *fakeLock) Acquire(_ context.Context, day string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.taken[day] {
		return false, nil
	}
	f.taken[day] = true
	return true, nil
}

func (f *fakeLock) Release(_ context.Context, day string) error {
	f.released = append(f.released, day)
	delete(f.taken, day)
	return nil
}

type gatewayReply struct {
	status int
	body   string
}

// gatewayServer records every form posted to it and answers per method.
type gatewayServer struct {
	mu      sync.Mutex
	forms   []url.Values
	replies map[string]gatewayReply
	delay   time.Duration
	url     string
	client  *http.Client
}

func newGatewayServer(t *testing.T) *gatewayServer {
	t.Helper()
	g := &gatewayServer{replies: map[string]gatewayReply{
		gateway.MethodSendMessage: {status: http.StatusOK, body: queuedReply},
	}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		g.mu.Lock()
		g.forms = append(g.forms, form)
		reply := g.replies[form.Get("method")]
		delay := g.delay
		g.mu.Unlock()
		time.Sleep(delay)
		if reply.status != 0 {
			w.WriteHeader(reply.status)
		}
		_, _ = io.WriteString(w, reply.body)
	}))
	t.Cleanup(srv.Close)
	g.url = srv.URL
	g.client = srv.Client()
	return g
}

func (g *gatewayServer) reply(method string, status int, body string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies[method] = gatewayReply{status: status, body: body}
}

func (g *gatewayServer) slowDown(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delay = d
}

func (g *gatewayServer) requests() []url.Values {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]url.Values(nil), g.forms...)
}

type harness struct {
	host      *fakeHost
	configs   *fakeConfigs
	templates *fakeTemplates
	logs      *fakeLogs
	audit     *fakeAudit
	gw        *gatewayServer
	factories int
	router    *Router
}

func defaultConfig() *repository.ModuleConfig {
	return &repository.ModuleConfig{
		API:            "key",
		Secret:         "shh",
		Enabled:        true,
		PersistLog:     true,
		ConsentFieldID: testConsentFld,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		host: &fakeHost{
			clients: map[int64]host.Client{
				testClientID: {
					ID:          testClientID,
					FirstName:   "Maria",
					LastName:    "Silva",
					Email:       "maria@example.com",
					PhoneNumber: "+55 11 98765-4321",
					Status:      "Active",
					CreatedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
				},
			},
			invoices: map[int64]host.Invoice{
				testInvoiceID: {ID: testInvoiceID, ClientID: testClientID, TotalCents: 5000, Status: "Unpaid", PaymentMethod: "paghiper"},
			},
			tickets:  map[int64]host.Ticket{},
			services: map[int64]host.Service{},
			fields:   map[fieldKey]string{{testConsentFld, testClientID}: "on"},
		},
		configs: &fakeConfigs{cfg: defaultConfig()},
		templates: &fakeTemplates{byCode: map[string]repository.Template{
			TagInvoiceCreated: {
				ID:      1,
				Code:    TagInvoiceCreated,
				Message: "Olá {{client_name}}, fatura #{{invoice_id}} de R$ {{invoice_total}}",
				Enabled: true,
			},
		}},
		logs:  &fakeLogs{},
		audit: &fakeAudit{},
		gw:    newGatewayServer(t),
	}
	h.router = h.newRouter(true, nil)
	return h
}

func (h *harness) newRouter(activityLog bool, billets BilletStore) *Router {
	log := logger.New("development")
	return NewRouter(Deps{
		Host:      h.host,
		Configs:   h.configs,
		Templates: h.templates,
		Logs:      h.logs,
		Audit:     h.audit,
		Billets:   billets,
		Gateways: func(api, secret string) Gateway {
			h.factories++
			return gateway.NewClient(h.gw.url, api, secret, log, gateway.WithHTTPClient(h.gw.client))
		},
		Log: log,
	}, Settings{
		ActivityLog:   activityLog,
		PhoneRegion:   "BR",
		BilletMethods: []string{"PagHiper"},
		Clock:         func() time.Time { return testNow },
	})
}

func (h *harness) setTemplate(t repository.Template) {
	h.templates.byCode[t.Code] = t
}

func (h *harness) dispatch(tag string, payload Payload) Outcome {
	ctx := context.Background()
	return h.router.Prepare(ctx, tag).Dispatch(ctx, payload)
}

func mustRules(t *testing.T, raw string) *rules.Config {
	t.Helper()
	cfg, err := rules.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse rules %s: %v", raw, err)
	}
	return cfg
}

var errBoom = errors.New("boom")

// failingGateway fails every call without reaching the network.
type failingGateway struct{ err error }

func (g failingGateway) Authenticate(context.Context) (gateway.Result, error) {
	return gateway.Result{}, g.err
}

func (g failingGateway) SendMessage(context.Context, gateway.Message) ([]gateway.Result, error) {
	return nil, g.err
}

func (g failingGateway) ConsultMessage(context.Context, int64) (gateway.Result, error) {
	return gateway.Result{}, g.err
}
