// Package rules holds the typed rule configuration attached to a template and
// the ordered predicate evaluation that decides whether a message goes out.
package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Rule configuration keys. Each key belongs to exactly one predicate.
const (
	KeyClientsAllow     = "clients_allow"
	KeyClientsDeny      = "clients_deny"
	KeyMinimumValue     = "minimum_value"
	KeyWeekdays         = "weekdays"
	KeyPaymentGateways  = "payment_gateways"
	KeyDepartments      = "departments"
	KeyStaffAllow       = "staff_allow"
	KeyStaffDeny        = "staff_deny"
	KeyServerIDs        = "server_ids"
	KeyProductIDs       = "product_ids"
	KeyProductNameParts = "product_name_parts"
	KeyEmailAllow       = "email_allow"
	KeyEmailDeny        = "email_deny"
	KeyClientStatuses   = "client_statuses"
)

// Config is the rule configuration of one template. A nil *Config means the
// template has no rules at all; every parameter inside a non-nil Config is
// individually optional.
type Config struct {
	ClientsAllow     Param[IDList]   `json:"clients_allow,omitzero"`
	ClientsDeny      Param[IDList]   `json:"clients_deny,omitzero"`
	MinimumValue     Param[Money]    `json:"minimum_value,omitzero"`
	Weekdays         Param[Weekdays] `json:"weekdays,omitzero"`
	PaymentGateways  Param[TextList] `json:"payment_gateways,omitzero"`
	Departments      Param[IDList]   `json:"departments,omitzero"`
	StaffAllow       Param[TextList] `json:"staff_allow,omitzero"`
	StaffDeny        Param[TextList] `json:"staff_deny,omitzero"`
	ServerIDs        Param[IDList]   `json:"server_ids,omitzero"`
	ProductIDs       Param[IDList]   `json:"product_ids,omitzero"`
	ProductNameParts Param[TextList] `json:"product_name_parts,omitzero"`
	EmailAllow       Param[TextList] `json:"email_allow,omitzero"`
	EmailDeny        Param[TextList] `json:"email_deny,omitzero"`
	ClientStatuses   Param[TextList] `json:"client_statuses,omitzero"`
}

// Parse decodes a stored rule blob. A nil or blank blob (including SQL NULL
// read as nil) returns a nil Config. Unknown keys are ignored.
func Parse(raw []byte) (*Config, error) {
	return parse(raw, false)
}

// ParseStrict is Parse but rejects unknown keys. Admin edits go through it.
func ParseStrict(raw []byte) (*Config, error) {
	return parse(raw, true)
}

func parse(raw []byte, strict bool) (*Config, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if strict {
		dec.DisallowUnknownFields()
	}

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode rule configuration: %w", err)
	}
	return &cfg, nil
}

// Encode serialises cfg for storage. A nil cfg encodes to nil.
func Encode(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, nil
	}
	return json.Marshal(cfg)
}

// PresentKeys lists the keys that are not Absent, in declaration order.
func (c *Config) PresentKeys() []string {
	if c == nil {
		return nil
	}
	states := []struct {
		key   string
		state State
	}{
		{KeyClientsAllow, c.ClientsAllow.State()},
		{KeyClientsDeny, c.ClientsDeny.State()},
		{KeyMinimumValue, c.MinimumValue.State()},
		{KeyWeekdays, c.Weekdays.State()},
		{KeyPaymentGateways, c.PaymentGateways.State()},
		{KeyDepartments, c.Departments.State()},
		{KeyStaffAllow, c.StaffAllow.State()},
		{KeyStaffDeny, c.StaffDeny.State()},
		{KeyServerIDs, c.ServerIDs.State()},
		{KeyProductIDs, c.ProductIDs.State()},
		{KeyProductNameParts, c.ProductNameParts.State()},
		{KeyEmailAllow, c.EmailAllow.State()},
		{KeyEmailDeny, c.EmailDeny.State()},
		{KeyClientStatuses, c.ClientStatuses.State()},
	}

	var keys []string
	for _, s := range states {
		if s.state != Absent {
			keys = append(keys, s.key)
		}
	}
	return keys
}

// ErrUnsupportedKey is returned by CheckSupported.
var ErrUnsupportedKey = errors.New("rule key not supported for event")

// CheckSupported returns an error naming the first present key that none of
// the predicates reads.
func (c *Config) CheckSupported(preds []Predicate) error {
	supported := make(map[string]struct{})
	for _, p := range preds {
		for _, k := range p.Keys {
			supported[k] = struct{}{}
		}
	}
	for _, key := range c.PresentKeys() {
		if _, ok := supported[key]; !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedKey, key)
		}
	}
	return nil
}
