package rules

import "time"

// Facts is the entity data predicates are evaluated against.
// Fields irrelevant to an event stay at their zero value.
type Facts struct {
	Now           time.Time
	ClientID      int64
	ClientEmail   string
	ClientStatus  string
	InvoiceTotal  Money
	PaymentMethod string
	DepartmentID  int64
	StaffName     string
	ServerID      int64
	ProductID     int64
	ProductName   string
}

// Predicate is one pure business condition. Check must not mutate anything and
// must return true when its own parameters are not Set.
type Predicate struct {
	Name  string
	Keys  []string
	Check func(cfg *Config, f Facts) bool
}

// Catalogue of predicates. Event handlers pick an ordered subset.
var (
	Client = Predicate{
		Name: "client",
		Keys: []string{KeyClientsAllow, KeyClientsDeny},
		Check: func(cfg *Config, f Facts) bool {
			if allow, ok := cfg.ClientsAllow.Value(); ok && !allow.Contains(f.ClientID) {
				return false
			}
			if deny, ok := cfg.ClientsDeny.Value(); ok && deny.Contains(f.ClientID) {
				return false
			}
			return true
		},
	}

	MinimumValue = Predicate{
		Name: "minimum_value",
		Keys: []string{KeyMinimumValue},
		Check: func(cfg *Config, f Facts) bool {
			threshold, ok := cfg.MinimumValue.Value()
			return !ok || f.InvoiceTotal >= threshold
		},
	}

	Weekday = Predicate{
		Name: "weekday",
		Keys: []string{KeyWeekdays},
		Check: func(cfg *Config, f Facts) bool {
			days, ok := cfg.Weekdays.Value()
			return !ok || days.Contains(f.Now.Weekday())
		},
	}

	PaymentGateway = Predicate{
		Name: "payment_gateway",
		Keys: []string{KeyPaymentGateways},
		Check: func(cfg *Config, f Facts) bool {
			gateways, ok := cfg.PaymentGateways.Value()
			return !ok || gateways.ContainsFold(f.PaymentMethod)
		},
	}

	Department = Predicate{
		Name: "department",
		Keys: []string{KeyDepartments},
		Check: func(cfg *Config, f Facts) bool {
			departments, ok := cfg.Departments.Value()
			return !ok || departments.Contains(f.DepartmentID)
		},
	}

	StaffName = Predicate{
		Name: "staff_name",
		Keys: []string{KeyStaffAllow, KeyStaffDeny},
		Check: func(cfg *Config, f Facts) bool {
			if allow, ok := cfg.StaffAllow.Value(); ok && !allow.ContainsFold(f.StaffName) {
				return false
			}
			if deny, ok := cfg.StaffDeny.Value(); ok && deny.ContainsFold(f.StaffName) {
				return false
			}
			return true
		},
	}

	ServerID = Predicate{
		Name: "server_id",
		Keys: []string{KeyServerIDs},
		Check: func(cfg *Config, f Facts) bool {
			servers, ok := cfg.ServerIDs.Value()
			return !ok || servers.Contains(f.ServerID)
		},
	}

	ProductID = Predicate{
		Name: "product_id",
		Keys: []string{KeyProductIDs},
		Check: func(cfg *Config, f Facts) bool {
			products, ok := cfg.ProductIDs.Value()
			return !ok || products.Contains(f.ProductID)
		},
	}

	ProductNameParts = Predicate{
		Name: "product_name_parts",
		Keys: []string{KeyProductNameParts},
		Check: func(cfg *Config, f Facts) bool {
			parts, ok := cfg.ProductNameParts.Value()
			return !ok || parts.AnyWithin(f.ProductName)
		},
	}

	EmailParts = Predicate{
		Name: "email_parts",
		Keys: []string{KeyEmailAllow, KeyEmailDeny},
		Check: func(cfg *Config, f Facts) bool {
			if allow, ok := cfg.EmailAllow.Value(); ok && !allow.AnyWithin(f.ClientEmail) {
				return false
			}
			if deny, ok := cfg.EmailDeny.Value(); ok && deny.AnyWithin(f.ClientEmail) {
				return false
			}
			return true
		},
	}

	ClientStatus = Predicate{
		Name: "client_status",
		Keys: []string{KeyClientStatuses},
		Check: func(cfg *Config, f Facts) bool {
			statuses, ok := cfg.ClientStatuses.Value()
			return !ok || statuses.ContainsFold(f.ClientStatus)
		},
	}
)
