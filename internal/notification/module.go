// Package notification turns host lifecycle events into messages sent through
// the messaging gateway, gated on client consent and per-template sending rules.
// It also owns the operator actions and the daily maintenance job of the module.
package notification

import (
	"context"
	"fmt"

	"hooknotify_backend/internal/events"
	"hooknotify_backend/internal/gateway"
	"hooknotify_backend/internal/host"
	apphttp "hooknotify_backend/internal/http"
	notifhandler "hooknotify_backend/internal/notification/handler"
	"hooknotify_backend/internal/notification/repository"
	"hooknotify_backend/internal/notification/transport"
	"hooknotify_backend/internal/templates"
	"hooknotify_backend/platform/config"
	"hooknotify_backend/platform/logger"
	"hooknotify_backend/platform/secretbox"
	"hooknotify_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config is the process configuration the module reads.
type Config interface {
	config.NotificationConfig
	config.GatewayConfig
}

// MaintenanceEnqueuer queues the daily maintenance task on the worker.
type MaintenanceEnqueuer interface {
	EnqueueDailyMaintenance(ctx context.Context) error
}

// Module wires the dispatch engine, its operator surface and maintenance.
type Module struct {
	router      *Router
	admin       *AdminService
	maintenance *Maintenance
	handler     *notifhandler.Handler
	definitions []templates.Definition
	bus         events.Bus
	enqueuer    MaintenanceEnqueuer
	log         *logger.Logger
}

// New creates the module over the host database.
func New(pool *pgxpool.Pool, box *secretbox.Box, cfg Config, val *validator.Validator, log *logger.Logger) (*Module, error) {
	defs, err := templates.Catalogue()
	if err != nil {
		return nil, err
	}

	endpoint := cfg.GetGatewayEndpoint()
	timeout := cfg.GetGatewayTimeout()
	router := NewRouter(Deps{
		Host:      host.NewRepository(pool),
		Configs:   repository.NewConfigRepository(pool, box),
		Templates: repository.NewTemplateRepository(pool),
		Logs:      repository.NewMessageLogRepository(pool),
		Audit:     repository.NewAuditRepository(pool),
		Gateways: func(api, secret string) Gateway {
			return gateway.NewClient(endpoint, api, secret, log, gateway.WithTimeout(timeout))
		},
		Log: log,
	}, Settings{
		ActivityLog:   cfg.IsActivityLogEnabled(),
		PhoneRegion:   cfg.GetPhoneDefaultRegion(),
		BilletMethods: cfg.GetBilletPaymentMethods(),
		Correlator:    NewFailedLoginCorrelator(cfg.GetFailedLoginWindow()),
	})

	return newModule(router, defs, val, log), nil
}

func newModule(router *Router, defs []templates.Definition, val *validator.Validator, log *logger.Logger) *Module {
	m := &Module{
		router:      router,
		admin:       NewAdminService(router, defs),
		maintenance: NewMaintenance(router, nil),
		definitions: defs,
		log:         log,
	}
	m.handler = notifhandler.New(m, m.admin, val)
	return m
}

func (m *Module) Name() string { return "notification" }

// RegisterRoutes mounts hook ingress and the operator routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterHookRoutes(ctx.Hooks)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// SetBilletStore enables payment-slip attachments on billing events.
func (m *Module) SetBilletStore(store BilletStore) { m.router.billets = store }

// SetDailyLock guards maintenance runs with a shared lock.
func (m *Module) SetDailyLock(lock DailyLock) { m.maintenance.lock = lock }

// SetMaintenanceEnqueuer moves maintenance runs requested by hooks onto the worker.
func (m *Module) SetMaintenanceEnqueuer(enqueuer MaintenanceEnqueuer) { m.enqueuer = enqueuer }

func (m *Module) Router() *Router { return m.router }

func (m *Module) Admin() *AdminService { return m.admin }

func (m *Module) Maintenance() *Maintenance { return m.maintenance }

// SeedTemplates creates a disabled template for every known event that has none.
func (m *Module) SeedTemplates(ctx context.Context) error {
	seeds := make([]repository.SeedTemplate, 0, len(m.definitions))
	for _, d := range m.definitions {
		seeds = append(seeds, repository.SeedTemplate{Code: d.Tag, Message: d.Message})
	}
	return m.router.templates.SeedTemplates(ctx, seeds)
}

// DispatchHook routes one inbound host event. The host's daily cron signal
// requests maintenance instead of a message. The work is not cancelled when
// the host drops the hook connection.
func (m *Module) DispatchHook(ctx context.Context, tag string, payload map[string]any) (transport.DispatchResponse, error) {
	ctx = context.WithoutCancel(ctx)
	if tag == TagDailyCronJob {
		if err := m.requestMaintenance(ctx, "hook"); err != nil {
			return transport.DispatchResponse{}, err
		}
		return toDispatchResponse(outcome(tag, OutcomeMaintenanceQueued)), nil
	}

	out := m.router.Prepare(ctx, tag).Dispatch(ctx, Payload(payload))
	return toDispatchResponse(out), nil
}

func (m *Module) requestMaintenance(ctx context.Context, source string) error {
	event := events.MaintenanceRequested{BaseEvent: events.NewBaseEvent(), Source: source}
	if m.bus == nil {
		return m.Handle(ctx, event)
	}
	return m.bus.PublishSync(ctx, event)
}

func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	m.bus = bus
	bus.Subscribe(events.MaintenanceRequested{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.MaintenanceRequested:
		return m.handleMaintenanceRequested(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleMaintenanceRequested(ctx context.Context, e events.MaintenanceRequested) error {
	if m.enqueuer != nil {
		if err := m.enqueuer.EnqueueDailyMaintenance(ctx); err != nil {
			return fmt.Errorf("enqueue daily maintenance: %w", err)
		}
		m.log.Info("daily maintenance queued", "source", e.Source)
		return nil
	}

	report, err := m.maintenance.Run(ctx)
	if err != nil {
		return fmt.Errorf("daily maintenance: %w", err)
	}
	m.log.Info("daily maintenance finished", "source", e.Source, "skipped", report.Skipped,
		"logsPurged", report.LogsPurged, "accountUpdated", report.AccountUpdated)
	return nil
}
