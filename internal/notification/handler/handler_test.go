package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hooknotify_backend/internal/notification/transport"
	"hooknotify_backend/platform/apperr"
	"hooknotify_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type fakeHooks struct {
	tag     string
	payload map[string]any
	calls   int
}

func (f *fakeHooks) DispatchHook(_ context.Context, tag string, payload map[string]any) (transport.DispatchResponse, error) {
	f.calls++
	f.tag, f.payload = tag, payload
	return transport.DispatchResponse{Event: tag, Sent: true, Outcome: "sent"}, nil
}

type fakeAdmin struct {
	rulesRaw   []byte
	logLimit   int
	cleared    bool
	manual     transport.ManualMessageRequest
	consultErr error
}

func (f *fakeAdmin) GetConfiguration(context.Context) (transport.ConfigurationResponse, error) {
	return transport.ConfigurationResponse{Configured: true, API: "key", HasSecret: true}, nil
}

func (f *fakeAdmin) SaveConfiguration(_ context.Context, req transport.SaveConfigurationRequest) (transport.ConfigurationResponse, error) {
	return transport.ConfigurationResponse{Configured: true, API: req.API, HasSecret: true}, nil
}

func (f *fakeAdmin) ListTemplates(context.Context) ([]transport.TemplateResponse, error) {
	return []transport.TemplateResponse{{ID: 1, Code: "InvoiceCreated"}}, nil
}

func (f *fakeAdmin) UpdateTemplate(_ context.Context, id int64, req transport.UpdateTemplateRequest) (transport.TemplateResponse, error) {
	return transport.TemplateResponse{ID: id, Message: req.Message, Enabled: *req.Enabled}, nil
}

func (f *fakeAdmin) UpdateTemplateRules(_ context.Context, id int64, raw []byte) (transport.TemplateResponse, error) {
	f.rulesRaw = raw
	if strings.Contains(string(raw), "departments") {
		return transport.TemplateResponse{}, apperr.Validation("rule key not supported for event: departments")
	}
	return transport.TemplateResponse{ID: id}, nil
}

func (f *fakeAdmin) ListLogs(_ context.Context, limit int) ([]transport.LogEntryResponse, error) {
	f.logLimit = limit
	return []transport.LogEntryResponse{}, nil
}

func (f *fakeAdmin) ClearLogs(context.Context) error {
	f.cleared = true
	return nil
}

func (f *fakeAdmin) SendManualMessage(_ context.Context, req transport.ManualMessageRequest) (transport.DispatchResponse, error) {
	f.manual = req
	return transport.DispatchResponse{Event: "AfterModuleReady", Sent: true, Outcome: "sent"}, nil
}

func (f *fakeAdmin) RunInvoiceReminder(_ context.Context, invoiceID int64) (transport.DispatchResponse, error) {
	return transport.DispatchResponse{Event: "InvoicePaymentReminder", Outcome: "sent", Sent: true}, nil
}

func (f *fakeAdmin) RunServiceReady(_ context.Context, serviceID int64) (transport.DispatchResponse, error) {
	return transport.DispatchResponse{Event: "AfterModuleReady", Outcome: "sent", Sent: true}, nil
}

func (f *fakeAdmin) ConsultMessage(_ context.Context, messageID int64) (transport.MessageStatusResponse, error) {
	if f.consultErr != nil {
		return transport.MessageStatusResponse{}, f.consultErr
	}
	return transport.MessageStatusResponse{MessageID: messageID, Status: "queue", StatusLabel: "Em Fila"}, nil
}

func newTestEngine() (*gin.Engine, *fakeHooks, *fakeAdmin) {
	gin.SetMode(gin.TestMode)
	hooks := &fakeHooks{}
	admin := &fakeAdmin{}
	h := New(hooks, admin, validator.New())

	engine := gin.New()
	h.RegisterHookRoutes(engine.Group("/hooks"))
	h.RegisterAdminRoutes(engine.Group("/admin"))
	return engine, hooks, admin
}

func do(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestReceiveHookPassesPayload(t *testing.T) {
	engine, hooks, _ := newTestEngine()

	rec := do(engine, http.MethodPost, "/hooks/InvoiceCreated", `{"invoiceid":12345678901234,"params":{"serviceid":"9"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if hooks.tag != "InvoiceCreated" {
		t.Fatalf("unexpected tag %q", hooks.tag)
	}
	if n, ok := hooks.payload["invoiceid"].(json.Number); !ok || n.String() != "12345678901234" {
		t.Fatalf("expected json.Number id, got %#v", hooks.payload["invoiceid"])
	}

	var resp transport.DispatchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || !resp.Sent {
		t.Fatalf("unexpected response %s", rec.Body.String())
	}
}

func TestReceiveHookEmptyBody(t *testing.T) {
	engine, hooks, _ := newTestEngine()

	rec := do(engine, http.MethodPost, "/hooks/DailyCronJob", "")
	if rec.Code != http.StatusOK || hooks.payload == nil || len(hooks.payload) != 0 {
		t.Fatalf("expected empty payload dispatch, got %d %#v", rec.Code, hooks.payload)
	}
}

func TestReceiveHookRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		path string
		body string
	}{
		{name: "bad tag", path: "/hooks/Invoice-Created", body: `{}`},
		{name: "array body", path: "/hooks/InvoiceCreated", body: `[1,2]`},
		{name: "broken json", path: "/hooks/InvoiceCreated", body: `{"invoiceid":`},
	}
	for _, tc := range cases {
		engine, hooks, _ := newTestEngine()
		rec := do(engine, http.MethodPost, tc.path, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
		if hooks.calls != 0 {
			t.Fatalf("%s: expected no dispatch", tc.name)
		}
	}
}

func TestSaveConfigurationValidates(t *testing.T) {
	engine, _, _ := newTestEngine()

	rec := do(engine, http.MethodPut, "/admin/configuration", `{"api":"  ","secret":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank api, got %d", rec.Code)
	}

	rec = do(engine, http.MethodPut, "/admin/configuration", `{"api":"key","secret":"shh","enabled":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "shh") {
		t.Fatalf("response must not echo the secret: %s", rec.Body.String())
	}
}

func TestUpdateTemplateRequiresEnabled(t *testing.T) {
	engine, _, _ := newTestEngine()

	if rec := do(engine, http.MethodPut, "/admin/templates/1", `{"message":"oi"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without enabled, got %d", rec.Code)
	}
	if rec := do(engine, http.MethodPut, "/admin/templates/1", `{"message":"oi","enabled":false}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(engine, http.MethodPut, "/admin/templates/abc", `{"message":"oi","enabled":false}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestUpdateTemplateRulesPassesRawBody(t *testing.T) {
	engine, _, admin := newTestEngine()

	rec := do(engine, http.MethodPut, "/admin/templates/1/rules", `{"minimum_value":"10"}`)
	if rec.Code != http.StatusOK || string(admin.rulesRaw) != `{"minimum_value":"10"}` {
		t.Fatalf("expected raw body forwarded, got %d %q", rec.Code, admin.rulesRaw)
	}

	rec = do(engine, http.MethodPut, "/admin/templates/1/rules", `{"departments":[1]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected validation error mapped to 400, got %d", rec.Code)
	}
}

func TestLogsRoutes(t *testing.T) {
	engine, _, admin := newTestEngine()

	if rec := do(engine, http.MethodGet, "/admin/logs?limit=20", ""); rec.Code != http.StatusOK || admin.logLimit != 20 {
		t.Fatalf("expected limit 20, got %d limit=%d", rec.Code, admin.logLimit)
	}
	if rec := do(engine, http.MethodGet, "/admin/logs?limit=9999", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", rec.Code)
	}
	if rec := do(engine, http.MethodDelete, "/admin/logs", ""); rec.Code != http.StatusNoContent || !admin.cleared {
		t.Fatalf("expected 204 and cleared logs, got %d", rec.Code)
	}
}

func TestSendManualMessageRoute(t *testing.T) {
	engine, _, admin := newTestEngine()

	if rec := do(engine, http.MethodPost, "/admin/messages", `{"clientId":0,"message":"oi"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing client, got %d", rec.Code)
	}
	rec := do(engine, http.MethodPost, "/admin/messages", `{"clientId":7,"message":"oi"}`)
	if rec.Code != http.StatusOK || admin.manual.ClientID != 7 {
		t.Fatalf("expected dispatch for client 7, got %d %+v", rec.Code, admin.manual)
	}
}

func TestActionRoutes(t *testing.T) {
	engine, _, _ := newTestEngine()

	if rec := do(engine, http.MethodPost, "/admin/actions/invoice-reminder", `{"invoiceId":100}`); rec.Code != http.StatusOK {
		t.Fatalf("invoice reminder: expected 200, got %d", rec.Code)
	}
	if rec := do(engine, http.MethodPost, "/admin/actions/service-ready", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("service ready: expected 400 without id, got %d", rec.Code)
	}
}

func TestConsultMessageRoute(t *testing.T) {
	engine, _, admin := newTestEngine()

	rec := do(engine, http.MethodGet, "/admin/messages/555/status", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Em Fila") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	admin.consultErr = apperr.NotFound("could not consult message 555")
	if rec := do(engine, http.MethodGet, "/admin/messages/555/status", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
