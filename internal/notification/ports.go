package notification

import (
	"context"
	"time"

	"hooknotify_backend/internal/gateway"
	"hooknotify_backend/internal/notification/repository"
	"hooknotify_backend/internal/rules"
)

// ConfigStore persists the single module configuration row.
// Load returns nil without error when the module was never configured.
type ConfigStore interface {
	Load(ctx context.Context) (*repository.ModuleConfig, error)
	Save(ctx context.Context, cfg repository.ModuleConfig) error
	SaveAccount(ctx context.Context, snapshot repository.AccountSnapshot) error
}

// TemplateStore persists one template per event tag.
type TemplateStore interface {
	TemplateByCode(ctx context.Context, code string) (repository.Template, error)
	TemplateByID(ctx context.Context, id int64) (repository.Template, error)
	ListTemplates(ctx context.Context) ([]repository.Template, error)
	UpdateTemplate(ctx context.Context, id int64, message string, enabled bool) (repository.Template, error)
	UpdateRules(ctx context.Context, id int64, cfg *rules.Config) (repository.Template, error)
	SeedTemplates(ctx context.Context, seeds []repository.SeedTemplate) error
}

// MessageLog is the append-only log of confirmed messages.
type MessageLog interface {
	Append(ctx context.Context, entry repository.LogEntry) error
	List(ctx context.Context, limit int) ([]repository.LogEntry, error)
	Clear(ctx context.Context) error
}

// AuditWriter appends a line to the host activity log.
type AuditWriter interface {
	Record(ctx context.Context, clientID int64, line string) error
}

// BilletStore resolves the payment-slip document of an invoice.
type BilletStore interface {
	BilletURL(ctx context.Context, invoiceID int64) (string, bool, error)
}

// DailyLock lets one maintenance run per calendar day through. A run that
// fails releases its day so a retry can take it again.
type DailyLock interface {
	Acquire(ctx context.Context, day string) (bool, error)
	Release(ctx context.Context, day string) error
}

// Gateway is the subset of the gateway client the module calls.
type Gateway interface {
	Authenticate(ctx context.Context) (gateway.Result, error)
	SendMessage(ctx context.Context, msg gateway.Message) ([]gateway.Result, error)
	ConsultMessage(ctx context.Context, messageID int64) (gateway.Result, error)
}

// GatewayFactory builds a gateway client for a set of credentials.
type GatewayFactory func(api, secret string) Gateway

// Clock returns the current time.
type Clock func() time.Time
