package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"hooknotify_backend/internal/gateway"
	"hooknotify_backend/internal/host"
	"hooknotify_backend/internal/notification/repository"
	"hooknotify_backend/internal/rules"
	"hooknotify_backend/internal/templates"
	"hooknotify_backend/platform/apperr"
	"hooknotify_backend/platform/logger"
	"hooknotify_backend/platform/phone"

	"github.com/google/uuid"
)

// Deps are the collaborators of the Router. Billets may be nil.
type Deps struct {
	Host      host.Reader
	Configs   ConfigStore
	Templates TemplateStore
	Logs      MessageLog
	Audit     AuditWriter
	Billets   BilletStore
	Gateways  GatewayFactory
	Log       *logger.Logger
}

// Settings tune the Router.
type Settings struct {
	// ActivityLog enables audit lines in the host activity log.
	ActivityLog   bool
	PhoneRegion   string
	BilletMethods []string
	Correlator    Correlator
	Clock         Clock
}

// Router turns host events into gateway messages.
type Router struct {
	host          host.Reader
	configs       ConfigStore
	templates     TemplateStore
	logs          MessageLog
	auditor       AuditWriter
	billets       BilletStore
	gateways      GatewayFactory
	log           *logger.Logger
	activityLog   bool
	phones        *phone.Normalizer
	billetMethods map[string]struct{}
	correlator    Correlator
	now           Clock
}

func NewRouter(deps Deps, settings Settings) *Router {
	methods := make(map[string]struct{}, len(settings.BilletMethods))
	for _, m := range settings.BilletMethods {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			methods[m] = struct{}{}
		}
	}
	correlator := settings.Correlator
	if correlator.Prefix == "" {
		correlator = NewFailedLoginCorrelator(correlator.Window)
	}
	clock := settings.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Router{
		host:          deps.Host,
		configs:       deps.Configs,
		templates:     deps.Templates,
		logs:          deps.Logs,
		auditor:       deps.Audit,
		billets:       deps.Billets,
		gateways:      deps.Gateways,
		log:           deps.Log,
		activityLog:   settings.ActivityLog,
		phones:        phone.NewNormalizer(settings.PhoneRegion),
		billetMethods: methods,
		correlator:    correlator,
		now:           clock,
	}
}

// Prepared is an event bound to the configuration loaded for it.
type Prepared struct {
	router  *Router
	tag     string
	cfg     *repository.ModuleConfig
	gw      Gateway
	loadErr error
}

// Prepare binds tag and loads the module configuration. A gateway client is
// built only when credentials are present.
func (r *Router) Prepare(ctx context.Context, tag string) *Prepared {
	p := &Prepared{router: r, tag: strings.TrimSpace(tag)}
	cfg, err := r.configs.Load(ctx)
	if err != nil {
		p.loadErr = err
		return p
	}
	p.cfg = cfg
	p.gw = r.gatewayFor(cfg)
	return p
}

// Config returns the configuration loaded by Prepare, nil when absent.
func (p *Prepared) Config() *repository.ModuleConfig { return p.cfg }

// Dispatch runs the event's pipeline against payload. With no configuration
// or a disabled module nothing is looked up or sent. Once started, a dispatch
// runs to completion even if ctx is cancelled: a message the gateway already
// queued must still be logged.
func (p *Prepared) Dispatch(ctx context.Context, payload Payload) Outcome {
	ctx = context.WithoutCancel(ctx)
	out := p.dispatch(ctx, payload)
	p.router.log.DispatchOutcome(out.Event, out.ClientID, string(out.Kind), out.Sent())
	return out
}

func (p *Prepared) dispatch(ctx context.Context, payload Payload) Outcome {
	r := p.router
	if p.loadErr != nil {
		r.log.DatabaseError("load module configuration", p.loadErr)
		out := outcome(p.tag, OutcomeLookupFailed)
		out.Detail = p.loadErr.Error()
		return out
	}
	if p.cfg == nil {
		r.audit(ctx, p.tag, 0, "Processo Abortado: Módulo não configurado")
		return outcome(p.tag, OutcomeConfigurationMissing)
	}
	if !p.cfg.Enabled {
		r.audit(ctx, p.tag, 0, "Processo Abortado: Módulo desativado")
		return outcome(p.tag, OutcomeModuleDisabled)
	}

	pl, ok := pipelines[p.tag]
	if !ok || pl.adminOnly {
		return outcome(p.tag, OutcomeUnknownEvent)
	}
	return r.run(ctx, p.tag, p.cfg, p.gw, pl, payload)
}

func (r *Router) run(ctx context.Context, tag string, cfg *repository.ModuleConfig, gw Gateway, pl pipeline, payload Payload) Outcome {
	now := r.now()

	subj, err := pl.resolve(ctx, r, payload, now)
	if err != nil {
		return r.resolveFailure(tag, err)
	}
	out := Outcome{Event: tag, ClientID: subj.client.ID}

	consented, err := consentGate(ctx, r.host, cfg, subj.client.ID)
	if err != nil {
		return r.lookupFailed(out, "consent field", err)
	}
	if !consented {
		out.Kind = OutcomeConsentDenied
		return out
	}

	tpl, ok, err := r.enabledTemplate(ctx, tag)
	if err != nil {
		return r.lookupFailed(out, "template", err)
	}
	if !ok {
		out.Kind = OutcomeTemplateDisabled
		return out
	}

	if decision := rules.Evaluate(tpl.Rules, pl.predicates, subj.facts(now)); !decision.Passed {
		out.Kind = OutcomeRuleRejected
		out.Detail = decision.Failed
		return out
	}

	text := templates.Render(tpl.Message, templates.ClientVars(subj.client, now), pl.bind(subj))

	var attachment *gateway.Attachment
	if pl.attach && subj.invoice != nil {
		attachment = r.attachmentFor(ctx, *subj.invoice)
	}

	return r.deliver(ctx, delivery{
		auditTag:   tag,
		logTag:     strings.ToLower(tag),
		cfg:        cfg,
		gw:         gw,
		client:     subj.client,
		text:       text,
		attachment: attachment,
	})
}

// enabledTemplate returns the template of tag. A missing template counts as
// disabled.
func (r *Router) enabledTemplate(ctx context.Context, tag string) (repository.Template, bool, error) {
	tpl, err := r.templates.TemplateByCode(ctx, tag)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			return repository.Template{}, false, nil
		}
		return repository.Template{}, false, err
	}
	return tpl, tpl.Enabled, nil
}

func (r *Router) resolveFailure(tag string, err error) Outcome {
	out := outcome(tag, OutcomeLookupFailed)
	switch {
	case errors.Is(err, errMissingID), apperr.GetKind(err) == apperr.KindNotFound:
		out.Kind = OutcomeEntityMissing
	case errors.Is(err, errStaleEvent):
		out.Kind = OutcomeStaleEvent
	default:
		r.log.Error("entity lookup failed", "event", tag, "error", err)
	}
	out.Detail = err.Error()
	return out
}

func (r *Router) lookupFailed(out Outcome, what string, err error) Outcome {
	r.log.Error(what+" lookup failed", "event", out.Event, "clientId", out.ClientID, "error", err)
	out.Kind = OutcomeLookupFailed
	out.Detail = err.Error()
	return out
}

func (r *Router) gatewayFor(cfg *repository.ModuleConfig) Gateway {
	if cfg == nil || !cfg.HasCredentials() || r.gateways == nil {
		return nil
	}
	return r.gateways(cfg.API, cfg.Secret)
}

// delivery is a rendered message ready for the gateway.
type delivery struct {
	auditTag   string
	logTag     string
	cfg        *repository.ModuleConfig
	gw         Gateway
	client     host.Client
	text       string
	attachment *gateway.Attachment
}

func (r *Router) deliver(ctx context.Context, d delivery) Outcome {
	out := Outcome{Event: d.auditTag, ClientID: d.client.ID}

	recipient, err := resolvePhone(ctx, r.host, r.phones, d.cfg, d.client)
	if err != nil {
		return r.lookupFailed(out, "phone field", err)
	}
	if recipient == "" {
		out.Kind = OutcomeRecipientMissing
		return out
	}
	if d.gw == nil {
		out.Kind = OutcomeGatewayPrecondition
		out.Detail = "gateway credentials are not set"
		return out
	}

	results, err := d.gw.SendMessage(ctx, gateway.Message{
		Phones:     []string{recipient},
		Text:       d.text,
		Attachment: d.attachment,
	})
	if err != nil {
		out.Kind = OutcomeGatewayTransportError
		if apperr.GetKind(err) == apperr.KindPrecondition {
			out.Kind = OutcomeGatewayPrecondition
		} else {
			r.audit(ctx, d.auditTag, d.client.ID, "Envio de Mensagem: Erro: "+err.Error())
		}
		out.Detail = err.Error()
		return out
	}
	return r.settle(ctx, d, results)
}

// settle folds the per-recipient results into one outcome.
func (r *Router) settle(ctx context.Context, d delivery, results []gateway.Result) Outcome {
	out := Outcome{Event: d.auditTag, ClientID: d.client.ID, Kind: OutcomeGatewayTransportError}
	var failure *gateway.Result
	for i := range results {
		if r.handleResult(ctx, d, results[i]) {
			out.MessageIDs = append(out.MessageIDs, results[i].MessageID())
			continue
		}
		if failure == nil {
			failure = &results[i]
		}
	}

	switch {
	case len(out.MessageIDs) > 0:
		out.Kind = OutcomeSent
	case failure != nil && failure.Kind() == gateway.KindTransportError:
		out.Detail = failure.Raw()
	case failure != nil:
		out.Kind = OutcomeGatewayLogicalFailure
		out.Detail = failure.Raw()
	}
	return out
}

// handleResult records one gateway result. Only a result the gateway
// confirmed as queued is written to the message log.
func (r *Router) handleResult(ctx context.Context, d delivery, res gateway.Result) bool {
	if !res.Queued() {
		r.audit(ctx, d.auditTag, d.client.ID, "Envio de Mensagem: Erro: "+res.Raw())
		return false
	}

	r.audit(ctx, d.auditTag, d.client.ID, "Envio de Mensagem: Sucesso. Id da Mensagem: "+res.MessageID())
	if d.cfg.PersistLog {
		entry := repository.LogEntry{
			ID:        uuid.New(),
			Message:   d.text,
			Code:      d.logTag,
			ClientID:  d.client.ID,
			MessageID: res.MessageID(),
			CreatedAt: r.now(),
		}
		if err := r.logs.Append(ctx, entry); err != nil {
			r.log.DatabaseError("append message log", err)
		}
	}
	return true
}

// AuditLine formats a line for the host activity log.
func AuditLine(tag, text string) string {
	return "[Notify][" + tag + "] " + text
}

func (r *Router) audit(ctx context.Context, tag string, clientID int64, text string) {
	if !r.activityLog || r.auditor == nil {
		return
	}
	if err := r.auditor.Record(ctx, clientID, AuditLine(tag, text)); err != nil {
		r.log.DatabaseError("record audit line", err)
	}
}
