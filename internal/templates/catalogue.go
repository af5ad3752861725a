package templates

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var catalogueYAML []byte

// Definition describes one event template shipped with the module.
type Definition struct {
	Tag         string   `yaml:"tag"`
	Description string   `yaml:"description"`
	Variables   []string `yaml:"variables"`
	Message     string   `yaml:"message"`
}

var variableGroups = map[string][]string{
	"client":       {"client_id", "client_name", "client_firstname", "client_lastname", "client_company", "client_email", "client_status", "date", "hour"},
	"invoice":      {"invoice_id", "invoice_total", "invoice_status", "invoice_paymentmethod", "invoice_date", "invoice_duedate"},
	"ticket":       {"ticket_id", "ticket_tid", "ticket_subject", "ticket_department", "ticket_status", "ticket_priority", "ticket_staff"},
	"service":      {"service_id", "service_product", "service_group", "service_domain", "service_username", "service_status", "service_billingcycle", "service_amount", "service_regdate", "service_nextduedate"},
	"registration": {"register_date"},
	"login":        {"login_date", "login_ip"},
}

// Catalogue parses the embedded definitions.
func Catalogue() ([]Definition, error) {
	var defs []Definition
	if err := yaml.Unmarshal(catalogueYAML, &defs); err != nil {
		return nil, fmt.Errorf("parse template catalogue: %w", err)
	}
	for _, d := range defs {
		for _, group := range d.Variables {
			if _, ok := variableGroups[group]; !ok {
				return nil, fmt.Errorf("template %s: unknown variable group %q", d.Tag, group)
			}
		}
	}
	return defs, nil
}

// VariableNames expands the definition's variable groups into placeholder names.
func (d Definition) VariableNames() []string {
	var names []string
	for _, group := range d.Variables {
		names = append(names, variableGroups[group]...)
	}
	return names
}
