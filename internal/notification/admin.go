package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hooknotify_backend/internal/gateway"
	"hooknotify_backend/internal/notification/repository"
	"hooknotify_backend/internal/notification/transport"
	"hooknotify_backend/internal/rules"
	"hooknotify_backend/internal/templates"
	"hooknotify_backend/platform/apperr"
	"hooknotify_backend/platform/sanitize"
)

const (
	defaultLogLimit = 100

	gatewayTimeLayout = "2006-01-02 15:04:05"
	displayTimeLayout = "02/01/2006 15:04:05"

	// configurationAuditTag labels audit lines written by configuration changes.
	configurationAuditTag = "Configuration"
)

var messageStatusLabels = map[string]string{
	"queue":                "Em Fila",
	"message_sent":         "Mensagem Enviada",
	"no_device_connection": "Dispositivo Sem Conexão",
	"missing_number":       "Número Inexistente",
	"blocked_number":       "Número Bloqueado",
	"qrcode_expired":       "QRCode Expirado",
}

// AdminService implements the operator actions of the module.
type AdminService struct {
	router      *Router
	definitions map[string]templates.Definition
}

func NewAdminService(router *Router, defs []templates.Definition) *AdminService {
	byTag := make(map[string]templates.Definition, len(defs))
	for _, d := range defs {
		byTag[d.Tag] = d
	}
	return &AdminService{router: router, definitions: byTag}
}

// GetConfiguration returns the module configuration without the secret.
func (s *AdminService) GetConfiguration(ctx context.Context) (transport.ConfigurationResponse, error) {
	cfg, err := s.router.configs.Load(ctx)
	if err != nil {
		return transport.ConfigurationResponse{}, err
	}
	return toConfigurationResponse(cfg), nil
}

// SaveConfiguration validates the credentials against the gateway and
// replaces the configuration, caching the account the gateway reported.
func (s *AdminService) SaveConfiguration(ctx context.Context, req transport.SaveConfigurationRequest) (transport.ConfigurationResponse, error) {
	r := s.router
	if r.gateways == nil {
		return transport.ConfigurationResponse{}, apperr.Precondition("gateway is not available")
	}

	res, err := r.gateways(req.API, req.Secret).Authenticate(ctx)
	if err != nil {
		return transport.ConfigurationResponse{}, err
	}
	if res.Kind() != gateway.KindSuccess {
		r.audit(ctx, configurationAuditTag, 0, "Erro: "+res.Raw())
		return transport.ConfigurationResponse{}, apperr.Unavailable("gateway rejected the credentials").WithDetails(res.Raw())
	}

	snapshot := accountSnapshot(res)
	cfg := repository.ModuleConfig{
		API:            req.API,
		Secret:         req.Secret,
		Enabled:        req.Enabled,
		PersistLog:     req.PersistLog,
		AutoPurgeLogs:  req.AutoPurgeLogs,
		ConsentFieldID: req.ConsentFieldID,
		PhoneFieldID:   req.PhoneFieldID,
		Account:        &snapshot,
		UpdatedAt:      r.now(),
	}
	if err := r.configs.Save(ctx, cfg); err != nil {
		return transport.ConfigurationResponse{}, err
	}
	return toConfigurationResponse(&cfg), nil
}

func (s *AdminService) ListTemplates(ctx context.Context) ([]transport.TemplateResponse, error) {
	list, err := s.router.templates.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.TemplateResponse, 0, len(list))
	for _, t := range list {
		out = append(out, s.toTemplateResponse(t))
	}
	return out, nil
}

func (s *AdminService) UpdateTemplate(ctx context.Context, id int64, req transport.UpdateTemplateRequest) (transport.TemplateResponse, error) {
	enabled := req.Enabled != nil && *req.Enabled
	t, err := s.router.templates.UpdateTemplate(ctx, id, req.Message, enabled)
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	return s.toTemplateResponse(t), nil
}

// UpdateTemplateRules replaces the rule configuration of a template with raw,
// a JSON object. A null body clears it. Keys the event does not evaluate are
// rejected.
func (s *AdminService) UpdateTemplateRules(ctx context.Context, id int64, raw []byte) (transport.TemplateResponse, error) {
	t, err := s.router.templates.TemplateByID(ctx, id)
	if err != nil {
		return transport.TemplateResponse{}, err
	}

	preds, _ := SupportedPredicates(t.Code)
	if len(preds) == 0 {
		return transport.TemplateResponse{}, apperr.Validation(fmt.Sprintf("template %s has no sending rules", t.Code))
	}

	cfg, err := rules.ParseStrict(raw)
	if err != nil {
		return transport.TemplateResponse{}, apperr.Wrap(apperr.KindValidation, "invalid rule configuration", err)
	}
	if err := cfg.CheckSupported(preds); err != nil {
		if errors.Is(err, rules.ErrUnsupportedKey) {
			return transport.TemplateResponse{}, apperr.Validation(err.Error())
		}
		return transport.TemplateResponse{}, err
	}

	updated, err := s.router.templates.UpdateRules(ctx, id, cfg)
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	return s.toTemplateResponse(updated), nil
}

func (s *AdminService) ListLogs(ctx context.Context, limit int) ([]transport.LogEntryResponse, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	entries, err := s.router.logs.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]transport.LogEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, transport.LogEntryResponse{
			ID:        e.ID.String(),
			Message:   e.Message,
			Code:      e.Code,
			ClientID:  e.ClientID,
			MessageID: e.MessageID,
			CreatedAt: e.CreatedAt,
		})
	}
	return out, nil
}

func (s *AdminService) ClearLogs(ctx context.Context) error {
	return s.router.logs.Clear(ctx)
}

// SendManualMessage sends operator text to a client. Only the client
// variables are bound; consent is checked as for a service-ready message.
func (s *AdminService) SendManualMessage(ctx context.Context, req transport.ManualMessageRequest) (transport.DispatchResponse, error) {
	ctx = context.WithoutCancel(ctx)
	r := s.router
	cfg, err := s.loadConfigured(ctx)
	if err != nil {
		return transport.DispatchResponse{}, err
	}

	client, err := r.host.Client(ctx, req.ClientID)
	if err != nil {
		return transport.DispatchResponse{}, err
	}

	out := Outcome{Event: TagAfterModuleReady, ClientID: client.ID}
	consented, err := consentGate(ctx, r.host, cfg, client.ID)
	if err != nil {
		return transport.DispatchResponse{}, err
	}
	if consented {
		text := templates.Render(sanitize.Message(req.Message), templates.ClientVars(client, r.now()))
		out = r.deliver(ctx, delivery{
			auditTag: TagAfterModuleReady,
			logTag:   logTagManual,
			cfg:      cfg,
			gw:       r.gatewayFor(cfg),
			client:   client,
			text:     text,
		})
	} else {
		out.Kind = OutcomeConsentDenied
	}

	r.log.DispatchOutcome(logTagManual, out.ClientID, string(out.Kind), out.Sent())
	return toDispatchResponse(out), nil
}

// RunInvoiceReminder runs the payment reminder for one invoice on demand.
func (s *AdminService) RunInvoiceReminder(ctx context.Context, invoiceID int64) (transport.DispatchResponse, error) {
	ctx = context.WithoutCancel(ctx)
	out := s.router.Prepare(ctx, TagInvoicePaymentReminder).Dispatch(ctx, Payload{"invoiceid": invoiceID})
	return toDispatchResponse(out), nil
}

// RunServiceReady tells the client a service is ready for use. It runs
// regardless of the module's enabled flag.
func (s *AdminService) RunServiceReady(ctx context.Context, serviceID int64) (transport.DispatchResponse, error) {
	ctx = context.WithoutCancel(ctx)
	r := s.router
	cfg, err := s.loadConfigured(ctx)
	if err != nil {
		return transport.DispatchResponse{}, err
	}

	out := r.run(ctx, TagAfterModuleReady, cfg, r.gatewayFor(cfg), pipelines[TagAfterModuleReady], Payload{"serviceid": serviceID})
	r.log.DispatchOutcome(out.Event, out.ClientID, string(out.Kind), out.Sent())
	return toDispatchResponse(out), nil
}

// ConsultMessage queries the gateway for the delivery status of a message.
func (s *AdminService) ConsultMessage(ctx context.Context, messageID int64) (transport.MessageStatusResponse, error) {
	r := s.router
	cfg, err := s.loadConfigured(ctx)
	if err != nil {
		return transport.MessageStatusResponse{}, err
	}
	gw := r.gatewayFor(cfg)
	if gw == nil {
		return transport.MessageStatusResponse{}, apperr.Precondition("gateway credentials are not set")
	}

	res, err := gw.ConsultMessage(ctx, messageID)
	if err != nil {
		return transport.MessageStatusResponse{}, err
	}
	if res.Kind() != gateway.KindSuccess || res.StatusResult() != gateway.StatusConsulted {
		return transport.MessageStatusResponse{}, apperr.NotFound(fmt.Sprintf("could not consult message %d", messageID)).
			WithDetails(res.Raw())
	}

	status := res.Field("messagestatus")
	label, ok := messageStatusLabels[status]
	if !ok {
		label = status
	}
	return transport.MessageStatusResponse{
		MessageID:   messageID,
		Phone:       res.Field("phone"),
		Status:      status,
		StatusLabel: label,
		Message:     res.Field("message"),
		Created:     displayTime(res.Field("created")),
		Updated:     displayTime(res.Field("updated")),
	}, nil
}

func (s *AdminService) loadConfigured(ctx context.Context) (*repository.ModuleConfig, error) {
	cfg, err := s.router.configs.Load(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, apperr.Precondition("module is not configured")
	}
	return cfg, nil
}

func (s *AdminService) toTemplateResponse(t repository.Template) transport.TemplateResponse {
	resp := transport.TemplateResponse{
		ID:             t.ID,
		Code:           t.Code,
		Message:        t.Message,
		Enabled:        t.Enabled,
		Rules:          t.Rules,
		SupportedRules: []string{},
		Variables:      []string{},
		UpdatedAt:      t.UpdatedAt,
	}
	if def, ok := s.definitions[t.Code]; ok {
		resp.Description = def.Description
		resp.Variables = def.VariableNames()
	}
	preds, _ := SupportedPredicates(t.Code)
	for _, p := range preds {
		resp.SupportedRules = append(resp.SupportedRules, p.Keys...)
	}
	return resp
}

func accountSnapshot(res gateway.Result) repository.AccountSnapshot {
	return repository.AccountSnapshot{
		Status:  res.Field("service"),
		DueDate: res.Field("duedate"),
		Plan:    res.Field("planname"),
		Auth:    res.Field("qrcodeauth"),
	}
}

func toConfigurationResponse(cfg *repository.ModuleConfig) transport.ConfigurationResponse {
	if cfg == nil {
		return transport.ConfigurationResponse{}
	}
	resp := transport.ConfigurationResponse{
		Configured:     true,
		API:            cfg.API,
		HasSecret:      cfg.Secret != "",
		Enabled:        cfg.Enabled,
		PersistLog:     cfg.PersistLog,
		AutoPurgeLogs:  cfg.AutoPurgeLogs,
		ConsentFieldID: cfg.ConsentFieldID,
		PhoneFieldID:   cfg.PhoneFieldID,
	}
	if cfg.Account != nil {
		resp.Account = &transport.AccountResponse{
			Status:  cfg.Account.Status,
			DueDate: cfg.Account.DueDate,
			Plan:    cfg.Account.Plan,
			Auth:    cfg.Account.Auth,
		}
	}
	if !cfg.UpdatedAt.IsZero() {
		updated := cfg.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

func toDispatchResponse(out Outcome) transport.DispatchResponse {
	return transport.DispatchResponse{
		Event:      out.Event,
		Sent:       out.Sent(),
		Outcome:    string(out.Kind),
		ClientID:   out.ClientID,
		Detail:     out.Detail,
		MessageIDs: out.MessageIDs,
	}
}

func displayTime(value string) string {
	t, err := time.Parse(gatewayTimeLayout, value)
	if err != nil {
		return value
	}
	return t.Format(displayTimeLayout)
}
