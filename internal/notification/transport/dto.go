package transport

import (
	"time"

	"hooknotify_backend/internal/rules"
)

// Configuration

type SaveConfigurationRequest struct {
	API            string `json:"api" validate:"required,notblank,max=255"`
	Secret         string `json:"secret" validate:"required,notblank,max=255"`
	Enabled        bool   `json:"enabled"`
	PersistLog     bool   `json:"persistLog"`
	AutoPurgeLogs  bool   `json:"autoPurgeLogs"`
	ConsentFieldID int64  `json:"consentFieldId" validate:"min=0"`
	PhoneFieldID   int64  `json:"phoneFieldId" validate:"min=0"`
}

type AccountResponse struct {
	Status  string `json:"status"`
	DueDate string `json:"dueDate"`
	Plan    string `json:"plan"`
	Auth    string `json:"auth"`
}

// ConfigurationResponse never carries the gateway secret.
type ConfigurationResponse struct {
	Configured     bool             `json:"configured"`
	API            string           `json:"api,omitempty"`
	HasSecret      bool             `json:"hasSecret"`
	Enabled        bool             `json:"enabled"`
	PersistLog     bool             `json:"persistLog"`
	AutoPurgeLogs  bool             `json:"autoPurgeLogs"`
	ConsentFieldID int64            `json:"consentFieldId"`
	PhoneFieldID   int64            `json:"phoneFieldId"`
	Account        *AccountResponse `json:"account,omitempty"`
	UpdatedAt      *time.Time       `json:"updatedAt,omitempty"`
}

// Templates

type TemplateResponse struct {
	ID             int64         `json:"id"`
	Code           string        `json:"code"`
	Description    string        `json:"description,omitempty"`
	Message        string        `json:"message"`
	Enabled        bool          `json:"enabled"`
	Rules          *rules.Config `json:"rules"`
	SupportedRules []string      `json:"supportedRules"`
	Variables      []string      `json:"variables"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

type UpdateTemplateRequest struct {
	Message string `json:"message" validate:"required,notblank,max=4096"`
	Enabled *bool  `json:"enabled" validate:"required"`
}

// Logs

type LogEntryResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	ClientID  int64     `json:"clientId"`
	MessageID string    `json:"messageId"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListLogsRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=500"`
}

// Actions

type ManualMessageRequest struct {
	ClientID int64  `json:"clientId" validate:"required,gt=0"`
	Message  string `json:"message" validate:"required,notblank,max=4096"`
}

type InvoiceReminderRequest struct {
	InvoiceID int64 `json:"invoiceId" validate:"required,gt=0"`
}

type ServiceReadyRequest struct {
	ServiceID int64 `json:"serviceId" validate:"required,gt=0"`
}

// DispatchResponse reports the outcome of one dispatch attempt.
type DispatchResponse struct {
	Event      string   `json:"event"`
	Sent       bool     `json:"sent"`
	Outcome    string   `json:"outcome"`
	ClientID   int64    `json:"clientId,omitempty"`
	Detail     string   `json:"detail,omitempty"`
	MessageIDs []string `json:"messageIds,omitempty"`
}

type MessageStatusResponse struct {
	MessageID   int64  `json:"messageId"`
	Phone       string `json:"phone"`
	Status      string `json:"status"`
	StatusLabel string `json:"statusLabel"`
	Message     string `json:"message"`
	Created     string `json:"created"`
	Updated     string `json:"updated"`
}

// Hooks

type HookRequest struct {
	Event string `validate:"required,event_tag,max=64"`
}
