// Package repository persists the notification module's own state: the single
// configuration row, one template per event, the message log and audit lines
// written to the host activity log.
package repository

import (
	"time"

	"hooknotify_backend/internal/rules"

	"github.com/google/uuid"
)

// AccountSnapshot is the cached gateway account status.
type AccountSnapshot struct {
	Status  string `json:"status"`
	DueDate string `json:"duedate"`
	Plan    string `json:"plan"`
	Auth    string `json:"auth"`
}

// ModuleConfig is the runtime configuration of the dispatch engine.
// Zero field ids mean no field mapping is configured.
type ModuleConfig struct {
	API            string
	Secret         string
	Enabled        bool
	PersistLog     bool
	AutoPurgeLogs  bool
	ConsentFieldID int64
	PhoneFieldID   int64
	Account        *AccountSnapshot
	UpdatedAt      time.Time
}

// HasCredentials reports whether a gateway client can be built.
func (c ModuleConfig) HasCredentials() bool {
	return c.API != "" && c.Secret != ""
}

// Template is the per-event message template. A nil Rules means the template
// carries no rule configuration.
type Template struct {
	ID        int64
	Code      string
	Message   string
	Enabled   bool
	Rules     *rules.Config
	UpdatedAt time.Time
}

// LogEntry is one row of the append-only message log.
type LogEntry struct {
	ID        uuid.UUID
	Message   string
	Code      string
	ClientID  int64
	MessageID string
	CreatedAt time.Time
}

// SeedTemplate is inserted when no template exists for its code.
type SeedTemplate struct {
	Code    string
	Message string
}
