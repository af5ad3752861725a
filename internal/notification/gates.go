package notification

import (
	"context"
	"strings"

	"hooknotify_backend/internal/gateway"
	"hooknotify_backend/internal/host"
	"hooknotify_backend/internal/notification/repository"
	"hooknotify_backend/platform/phone"
)

// optInValues are custom field values that count as consent. Checkbox fields
// store "on"; dropdowns usually carry a yes/sim option.
var optInValues = map[string]struct{}{
	"on":      {},
	"yes":     {},
	"y":       {},
	"sim":     {},
	"s":       {},
	"1":       {},
	"true":    {},
	"checked": {},
	"aceito":  {},
}

// IsOptIn reports whether a stored custom field value signals consent.
func IsOptIn(value string) bool {
	_, ok := optInValues[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// consentGate passes when no consent field is configured or the client's
// value for it signals opt-in.
func consentGate(ctx context.Context, reader host.Reader, cfg *repository.ModuleConfig, clientID int64) (bool, error) {
	if cfg.ConsentFieldID == 0 {
		return true, nil
	}
	value, err := reader.CustomFieldValue(ctx, cfg.ConsentFieldID, clientID)
	if err != nil {
		return false, err
	}
	return IsOptIn(value), nil
}

// resolvePhone reads the configured phone field and falls back to the
// profile phone number. The result is in the gateway's digit format.
func resolvePhone(ctx context.Context, reader host.Reader, normalizer *phone.Normalizer, cfg *repository.ModuleConfig, client host.Client) (string, error) {
	raw := ""
	if cfg.PhoneFieldID != 0 {
		value, err := reader.CustomFieldValue(ctx, cfg.PhoneFieldID, client.ID)
		if err != nil {
			return "", err
		}
		raw = value
	}
	if strings.TrimSpace(raw) == "" {
		raw = client.PhoneNumber
	}
	return normalizer.GatewayDigits(raw), nil
}

// attachmentFor returns the payment slip of inv when its payment method
// produces one. Lookup failures are reported but leave the message without
// an attachment.
func (r *Router) attachmentFor(ctx context.Context, inv host.Invoice) *gateway.Attachment {
	if r.billets == nil {
		return nil
	}
	if _, ok := r.billetMethods[strings.ToLower(strings.TrimSpace(inv.PaymentMethod))]; !ok {
		return nil
	}

	url, found, err := r.billets.BilletURL(ctx, inv.ID)
	if err != nil {
		r.log.Warn("billet lookup failed", "invoiceId", inv.ID, "error", err)
		return nil
	}
	if !found {
		return nil
	}
	return &gateway.Attachment{Document: url, FileType: "pdf"}
}
