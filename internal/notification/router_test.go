package notification

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"hooknotify_backend/internal/gateway"
	"hooknotify_backend/internal/host"
	"hooknotify_backend/internal/notification/repository"
)

func TestDispatchInvoiceCreatedSendsAndLogs(t *testing.T) {
	h := newHarness(t)

	out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if out.Kind != OutcomeSent || !out.Sent() {
		t.Fatalf("expected sent, got %+v", out)
	}
	if len(out.MessageIDs) != 1 || out.MessageIDs[0] != "555" {
		t.Fatalf("unexpected message ids %v", out.MessageIDs)
	}

	reqs := h.gw.requests()
	if len(reqs) != 1 {
		t.Fatalf("expected one gateway request, got %d", len(reqs))
	}
	form := reqs[0]
	if form.Get("method") != gateway.MethodSendMessage || form.Get("phone") != testPhoneDigits {
		t.Fatalf("unexpected request %v", form)
	}
	if want := "Olá Maria Silva, fatura #100 de R$ 50.00"; form.Get("message") != want {
		t.Fatalf("expected message %q, got %q", want, form.Get("message"))
	}

	if len(h.logs.entries) != 1 {
		t.Fatalf("expected one log row, got %d", len(h.logs.entries))
	}
	entry := h.logs.entries[0]
	if entry.MessageID != "555" || entry.Code != "invoicecreated" || entry.ClientID != testClientID {
		t.Fatalf("unexpected log row %+v", entry)
	}
	want := "[Notify][InvoiceCreated] Envio de Mensagem: Sucesso. Id da Mensagem: 555"
	if len(h.audit.lines) != 1 || h.audit.lines[0] != want {
		t.Fatalf("unexpected audit lines %v", h.audit.lines)
	}
}

func TestDispatchConsentDeniedSendsNothing(t *testing.T) {
	h := newHarness(t)
	h.host.fields[fieldKey{testConsentFld, testClientID}] = "off"

	out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if out.Kind != OutcomeConsentDenied {
		t.Fatalf("expected consent_denied, got %+v", out)
	}
	if n := len(h.gw.requests()); n != 0 {
		t.Fatalf("expected no gateway requests, got %d", n)
	}
	if len(h.logs.entries) != 0 {
		t.Fatalf("expected no log rows, got %d", len(h.logs.entries))
	}
	if h.templates.calls != 0 {
		t.Fatalf("expected template not to be read after consent failed, got %d reads", h.templates.calls)
	}
}

func TestDispatchWithoutConsentFieldSkipsConsent(t *testing.T) {
	h := newHarness(t)
	h.configs.cfg.ConsentFieldID = 0
	delete(h.host.fields, fieldKey{testConsentFld, testClientID})

	out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if out.Kind != OutcomeSent {
		t.Fatalf("expected sent without consent field, got %+v", out)
	}
}

func TestDispatchMinimumValueRejects(t *testing.T) {
	h := newHarness(t)
	tpl := h.templates.byCode[TagInvoiceCreated]
	tpl.Rules = mustRules(t, `{"minimum_value":"100.00"}`)
	h.setTemplate(tpl)

	out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if out.Kind != OutcomeRuleRejected || out.Detail != "minimum_value" {
		t.Fatalf("expected minimum_value rejection, got %+v", out)
	}
	if n := len(h.gw.requests()); n != 0 {
		t.Fatalf("expected no gateway requests, got %d", n)
	}
}

func TestDispatchReportsFirstFailingPredicate(t *testing.T) {
	h := newHarness(t)
	tpl := h.templates.byCode[TagInvoiceCreated]
	tpl.Rules = mustRules(t, `{"clients_deny":[1],"minimum_value":"100.00","weekdays":[0]}`)
	h.setTemplate(tpl)

	out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if out.Kind != OutcomeRuleRejected || out.Detail != "client" {
		t.Fatalf("expected client rejection first, got %+v", out)
	}
}

func TestDispatchEmptyRuleConfigSends(t *testing.T) {
	h := newHarness(t)
	tpl := h.templates.byCode[TagInvoiceCreated]
	tpl.Rules = mustRules(t, `{"clients_allow":"","weekdays":[],"minimum_value":null}`)
	h.setTemplate(tpl)

	out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if out.Kind != OutcomeSent {
		t.Fatalf("expected empty parameters to pass, got %+v", out)
	}
}

func TestDispatchWeekdayRule(t *testing.T) {
	h := newHarness(t)
	tpl := h.templates.byCode[TagInvoiceCreated]
	tpl.Rules = mustRules(t, `{"weekdays":[1,2]}`)
	h.setTemplate(tpl)

	if out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID}); out.Kind != OutcomeRuleRejected || out.Detail != "weekday" {
		t.Fatalf("expected weekday rejection on a Wednesday, got %+v", out)
	}

	tpl.Rules = mustRules(t, `{"weekdays":"3"}`)
	h.setTemplate(tpl)
	if out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID}); out.Kind != OutcomeSent {
		t.Fatalf("expected Wednesday to pass, got %+v", out)
	}
}

func TestDispatchClientErrorWritesAuditOnly(t *testing.T) {
	h := newHarness(t)
	h.gw.reply(gateway.MethodSendMessage, http.StatusBadRequest, "Bad Request")

	out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if out.Kind != OutcomeGatewayTransportError || out.Sent() {
		t.Fatalf("expected transport error, got %+v", out)
	}
	if out.Detail != "Bad Request" {
		t.Fatalf("expected raw body in detail, got %q", out.Detail)
	}
	if len(h.logs.entries) != 0 {
		t.Fatalf("expected no log rows, got %d", len(h.logs.entries))
	}
	if len(h.audit.lines) != 1 || !strings.Contains(h.audit.lines[0], "Bad Request") {
		t.Fatalf("expected one audit line with the body, got %v", h.audit.lines)
	}
}

func TestDispatchOutlivesCallerDeadline(t *testing.T) {
	h := newHarness(t)
	h.gw.slowDown(200 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	out := h.router.Prepare(ctx, TagInvoiceCreated).Dispatch(ctx, Payload{"invoiceid": testInvoiceID})

	if out.Kind != OutcomeSent {
		t.Fatalf("expected the queued message to count as sent, got %+v", out)
	}
	if len(h.gw.requests()) != 1 {
		t.Fatalf("expected one gateway request, got %d", len(h.gw.requests()))
	}
	if len(h.logs.entries) != 1 || h.logs.entries[0].MessageID != "555" {
		t.Fatalf("expected the queued message logged, got %+v", h.logs.entries)
	}
	want := "[Notify][InvoiceCreated] Envio de Mensagem: Sucesso. Id da Mensagem: 555"
	if len(h.audit.lines) != 1 || h.audit.lines[0] != want {
		t.Fatalf("unexpected audit lines %v", h.audit.lines)
	}
}

func TestDispatchGatewayErrorIsAudited(t *testing.T) {
	h := newHarness(t)
	h.router.gateways = func(string, string) Gateway { return failingGateway{err: errBoom} }

	out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if out.Kind != OutcomeGatewayTransportError || out.Detail != errBoom.Error() {
		t.Fatalf("expected transport error, got %+v", out)
	}
	if len(h.logs.entries) != 0 {
		t.Fatalf("expected no log rows, got %d", len(h.logs.entries))
	}
	want := "[Notify][InvoiceCreated] Envio de Mensagem: Erro: boom"
	if len(h.audit.lines) != 1 || h.audit.lines[0] != want {
		t.Fatalf("unexpected audit lines %v", h.audit.lines)
	}
}

func TestDispatchLogicalFailure(t *testing.T) {
	h := newHarness(t)
	h.gw.reply(gateway.MethodSendMessage, http.StatusOK, `{"result":"error","status_result":"missing_number"}`)

	out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if out.Kind != OutcomeGatewayLogicalFailure {
		t.Fatalf("expected logical failure, got %+v", out)
	}
	if !strings.Contains(out.Detail, "missing_number") {
		t.Fatalf("expected raw result in detail, got %q", out.Detail)
	}
	if len(h.logs.entries) != 0 {
		t.Fatalf("expected no log rows, got %d", len(h.logs.entries))
	}
}

func TestDispatchSuccessWithoutQueuedStatusIsNotLogged(t *testing.T) {
	h := newHarness(t)
	h.gw.reply(gateway.MethodSendMessage, http.StatusOK, `{"result":"success","status_result":"other"}`)

	out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if out.Sent() || len(h.logs.entries) != 0 {
		t.Fatalf("expected unqueued success not to count, got %+v rows=%d", out, len(h.logs.entries))
	}
}

func TestDispatchWithoutPersistLogStillSends(t *testing.T) {
	h := newHarness(t)
	h.configs.cfg.PersistLog = false

	out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if out.Kind != OutcomeSent {
		t.Fatalf("expected sent, got %+v", out)
	}
	if len(h.logs.entries) != 0 {
		t.Fatalf("expected no log rows, got %d", len(h.logs.entries))
	}
}

func TestDispatchGatedByModuleState(t *testing.T) {
	disabled := defaultConfig()
	disabled.Enabled = false

	cases := []struct {
		name  string
		cfg   *repository.ModuleConfig
		kind  OutcomeKind
		audit string
	}{
		{name: "missing", cfg: nil, kind: OutcomeConfigurationMissing, audit: "[Notify][InvoiceCreated] Processo Abortado: Módulo não configurado"},
		{name: "disabled", cfg: disabled, kind: OutcomeModuleDisabled, audit: "[Notify][InvoiceCreated] Processo Abortado: Módulo desativado"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.configs.cfg = tc.cfg

			out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
			if out.Kind != tc.kind {
				t.Fatalf("expected %s, got %+v", tc.kind, out)
			}
			if h.host.calls != 0 || h.templates.calls != 0 {
				t.Fatalf("expected no lookups, got host=%d templates=%d", h.host.calls, h.templates.calls)
			}
			if n := len(h.gw.requests()); n != 0 {
				t.Fatalf("expected no gateway requests, got %d", n)
			}
			if len(h.logs.entries) != 0 {
				t.Fatalf("expected no log rows, got %d", len(h.logs.entries))
			}
			if len(h.audit.lines) != 1 || h.audit.lines[0] != tc.audit {
				t.Fatalf("unexpected audit lines %v", h.audit.lines)
			}
		})
	}
}

func TestPrepareBuildsGatewayOnlyWithCredentials(t *testing.T) {
	h := newHarness(t)
	h.configs.cfg.Secret = ""

	p := h.router.Prepare(t.Context(), TagInvoiceCreated)
	if p.Config() == nil || h.factories != 0 {
		t.Fatalf("expected config without gateway, factories=%d", h.factories)
	}

	out := p.Dispatch(t.Context(), Payload{"invoiceid": testInvoiceID})
	if out.Kind != OutcomeGatewayPrecondition {
		t.Fatalf("expected gateway precondition, got %+v", out)
	}
	if n := len(h.gw.requests()); n != 0 {
		t.Fatalf("expected no gateway requests, got %d", n)
	}
}

func TestDispatchActivityLogOffWritesNoAudit(t *testing.T) {
	h := newHarness(t)
	h.router = h.newRouter(false, nil)
	h.configs.cfg = nil

	if out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID}); out.Kind != OutcomeConfigurationMissing {
		t.Fatalf("expected configuration_missing, got %+v", out)
	}
	if len(h.audit.lines) != 0 {
		t.Fatalf("expected no audit lines, got %v", h.audit.lines)
	}
}

func TestDispatchLoadErrorIsLookupFailed(t *testing.T) {
	h := newHarness(t)
	h.configs.loadErr = errBoom

	out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if out.Kind != OutcomeLookupFailed || out.Detail != "boom" {
		t.Fatalf("expected lookup_failed, got %+v", out)
	}
}

func TestDispatchUnknownAndOperatorOnlyEvents(t *testing.T) {
	for _, tag := range []string{"InvoiceRefunded", TagAfterModuleReady, ""} {
		h := newHarness(t)
		out := h.dispatch(tag, Payload{"invoiceid": testInvoiceID, "serviceid": 9})
		if out.Kind != OutcomeUnknownEvent {
			t.Fatalf("%q: expected unknown_event, got %+v", tag, out)
		}
		if h.host.calls != 0 {
			t.Fatalf("%q: expected no host lookups, got %d", tag, h.host.calls)
		}
	}
}

func TestDispatchEntityMissing(t *testing.T) {
	h := newHarness(t)

	if out := h.dispatch(TagInvoiceCreated, Payload{}); out.Kind != OutcomeEntityMissing {
		t.Fatalf("expected entity_missing without id, got %+v", out)
	}
	if out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": "0"}); out.Kind != OutcomeEntityMissing {
		t.Fatalf("expected entity_missing for zero id, got %+v", out)
	}
	if out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": 404}); out.Kind != OutcomeEntityMissing {
		t.Fatalf("expected entity_missing for unknown invoice, got %+v", out)
	}
}

func TestDispatchHostErrorIsLookupFailed(t *testing.T) {
	h := newHarness(t)
	h.host.clientErr = errBoom

	if out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID}); out.Kind != OutcomeLookupFailed {
		t.Fatalf("expected lookup_failed, got %+v", out)
	}
}

func TestDispatchTemplateMissingOrDisabled(t *testing.T) {
	h := newHarness(t)
	tpl := h.templates.byCode[TagInvoiceCreated]
	tpl.Enabled = false
	h.setTemplate(tpl)

	if out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID}); out.Kind != OutcomeTemplateDisabled {
		t.Fatalf("expected template_disabled, got %+v", out)
	}

	delete(h.templates.byCode, TagInvoiceCreated)
	if out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID}); out.Kind != OutcomeTemplateDisabled {
		t.Fatalf("expected missing template to count as disabled, got %+v", out)
	}
	if n := len(h.gw.requests()); n != 0 {
		t.Fatalf("expected no gateway requests, got %d", n)
	}
}

func TestDispatchOverdueAlertReadsRelID(t *testing.T) {
	h := newHarness(t)
	h.setTemplate(repository.Template{ID: 2, Code: TagInvoiceFirstOverdueAlert, Message: "#{{invoice_id}}", Enabled: true})

	out := h.dispatch(TagInvoiceFirstOverdueAlert, Payload{"relid": "100"})
	if out.Kind != OutcomeSent {
		t.Fatalf("expected sent, got %+v", out)
	}
	if msg := h.gw.requests()[0].Get("message"); msg != "#100" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestDispatchPaymentGatewayRule(t *testing.T) {
	h := newHarness(t)
	h.setTemplate(repository.Template{
		ID: 3, Code: TagInvoicePaid, Message: "pago", Enabled: true,
		Rules: mustRules(t, `{"payment_gateways":"banco,pix"}`),
	})

	out := h.dispatch(TagInvoicePaid, Payload{"invoiceid": testInvoiceID})
	if out.Kind != OutcomeRuleRejected || out.Detail != "payment_gateway" {
		t.Fatalf("expected payment_gateway rejection, got %+v", out)
	}
}

func TestDispatchAttachesBilletForSlipMethods(t *testing.T) {
	h := newHarness(t)
	h.router = h.newRouter(true, fakeBillets{url: "https://files.example.com/100.pdf", found: true})

	if out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID}); out.Kind != OutcomeSent {
		t.Fatalf("expected sent, got %+v", out)
	}
	form := h.gw.requests()[0]
	if form.Get("document") != "https://files.example.com/100.pdf" || form.Get("filetype") != "pdf" {
		t.Fatalf("expected billet attachment, got %v", form)
	}

	inv := h.host.invoices[testInvoiceID]
	inv.PaymentMethod = "creditcard"
	h.host.invoices[testInvoiceID] = inv
	h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if doc := h.gw.requests()[1].Get("document"); doc != "" {
		t.Fatalf("expected no attachment for card payments, got %q", doc)
	}
}

func TestDispatchBilletErrorStillSends(t *testing.T) {
	h := newHarness(t)
	h.router = h.newRouter(true, fakeBillets{err: errBoom})

	if out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID}); out.Kind != OutcomeSent {
		t.Fatalf("expected sent without attachment, got %+v", out)
	}
	if doc := h.gw.requests()[0].Get("document"); doc != "" {
		t.Fatalf("expected no attachment, got %q", doc)
	}
}

func TestDispatchPaidInvoiceNeverAttaches(t *testing.T) {
	h := newHarness(t)
	h.router = h.newRouter(true, fakeBillets{url: "https://files.example.com/100.pdf", found: true})
	h.setTemplate(repository.Template{ID: 3, Code: TagInvoicePaid, Message: "pago", Enabled: true})

	h.dispatch(TagInvoicePaid, Payload{"invoiceid": testInvoiceID})
	if doc := h.gw.requests()[0].Get("document"); doc != "" {
		t.Fatalf("expected no attachment on payment confirmation, got %q", doc)
	}
}

func TestDispatchPhoneFieldAndFallback(t *testing.T) {
	h := newHarness(t)
	h.configs.cfg.PhoneFieldID = 9
	h.host.fields[fieldKey{9, testClientID}] = "(21) 99876-5432"

	h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if phone := h.gw.requests()[0].Get("phone"); phone != "5521998765432" {
		t.Fatalf("expected phone from custom field, got %q", phone)
	}

	h.host.fields[fieldKey{9, testClientID}] = "  "
	h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID})
	if phone := h.gw.requests()[1].Get("phone"); phone != testPhoneDigits {
		t.Fatalf("expected profile phone fallback, got %q", phone)
	}
}

func TestDispatchRecipientMissing(t *testing.T) {
	h := newHarness(t)
	c := h.host.clients[testClientID]
	c.PhoneNumber = ""
	h.host.clients[testClientID] = c

	if out := h.dispatch(TagInvoiceCreated, Payload{"invoiceid": testInvoiceID}); out.Kind != OutcomeRecipientMissing {
		t.Fatalf("expected recipient_missing, got %+v", out)
	}
	if n := len(h.gw.requests()); n != 0 {
		t.Fatalf("expected no gateway requests, got %d", n)
	}
}

func TestDispatchTicketAdminReply(t *testing.T) {
	h := newHarness(t)
	h.host.tickets[50] = host.Ticket{ID: 50, Mask: "ABC-123", ClientID: testClientID, DepartmentID: 2, Subject: "Ajuda"}
	h.setTemplate(repository.Template{
		ID: 4, Code: TagTicketAdminReply, Message: "{{ticket_tid}} respondido por {{ticket_staff}}", Enabled: true,
		Rules: mustRules(t, `{"departments":[2],"staff_deny":["Robô"]}`),
	})

	out := h.dispatch(TagTicketAdminReply, Payload{"ticketid": 50, "admin": "Ana"})
	if out.Kind != OutcomeSent {
		t.Fatalf("expected sent, got %+v", out)
	}
	if msg := h.gw.requests()[0].Get("message"); msg != "ABC-123 respondido por Ana" {
		t.Fatalf("unexpected message %q", msg)
	}

	out = h.dispatch(TagTicketAdminReply, Payload{"ticketid": 50, "admin": "robô"})
	if out.Kind != OutcomeRuleRejected || out.Detail != "staff_name" {
		t.Fatalf("expected staff_name rejection, got %+v", out)
	}
}

func TestDispatchServiceEventReadsNestedParams(t *testing.T) {
	h := newHarness(t)
	h.host.services[9] = host.Service{
		ID: 9, ClientID: testClientID, ServerID: 3, Domain: "example.com.br",
		Product: host.Product{ID: 12, Name: "Hospedagem Plus"},
	}
	h.setTemplate(repository.Template{
		ID: 5, Code: TagAfterModuleSuspend, Message: "{{service_domain}} suspenso", Enabled: true,
		Rules: mustRules(t, `{"product_name_parts":["plus"]}`),
	})

	out := h.dispatch(TagAfterModuleSuspend, Payload{"params": map[string]any{"serviceid": "9"}})
	if out.Kind != OutcomeSent {
		t.Fatalf("expected sent, got %+v", out)
	}
	if msg := h.gw.requests()[0].Get("message"); msg != "example.com.br suspenso" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestDispatchFailedLoginCorrelation(t *testing.T) {
	h := newHarness(t)
	h.setTemplate(repository.Template{
		ID: 6, Code: TagClientAreaPageLogin, Message: "Falha de login em {{login_date}} de {{login_ip}}", Enabled: true,
	})

	h.host.activity = host.ActivityEntry{
		Description: "Failed Login Attempt - User ID: 1",
		ClientID:    testClientID,
		IPAddress:   "203.0.113.9",
		Date:        testNow.Add(-time.Second),
	}
	out := h.dispatch(TagClientAreaPageLogin, Payload{})
	if out.Kind != OutcomeSent {
		t.Fatalf("expected sent for fresh failure, got %+v", out)
	}
	if msg := h.gw.requests()[0].Get("message"); msg != "Falha de login em 04/03/2026 09:59 de 203.0.113.9" {
		t.Fatalf("unexpected message %q", msg)
	}

	h.host.activity.Date = testNow.Add(-5 * time.Second)
	calls := h.host.calls
	if out := h.dispatch(TagClientAreaPageLogin, Payload{}); out.Kind != OutcomeStaleEvent {
		t.Fatalf("expected stale_event, got %+v", out)
	}
	if h.host.calls != calls+1 {
		t.Fatalf("expected only the audit row to be read, got %d lookups", h.host.calls-calls)
	}

	h.host.activity = host.ActivityEntry{Description: "Client Login", ClientID: testClientID, Date: testNow}
	if out := h.dispatch(TagClientAreaPageLogin, Payload{}); out.Kind != OutcomeStaleEvent {
		t.Fatalf("expected unrelated audit row to be stale, got %+v", out)
	}
}

func TestDispatchClientAddEmailRule(t *testing.T) {
	h := newHarness(t)
	h.setTemplate(repository.Template{
		ID: 7, Code: TagClientAdd, Message: "Bem-vindo desde {{register_date}}", Enabled: true,
		Rules: mustRules(t, `{"email_deny":["@example.com"]}`),
	})

	out := h.dispatch(TagClientAdd, Payload{"userid": 1})
	if out.Kind != OutcomeRuleRejected || out.Detail != "email_parts" {
		t.Fatalf("expected email_parts rejection, got %+v", out)
	}
}

func TestAuditLineFormat(t *testing.T) {
	if got := AuditLine("InvoicePaid", "texto"); got != "[Notify][InvoicePaid] texto" {
		t.Fatalf("unexpected audit line %q", got)
	}
}
