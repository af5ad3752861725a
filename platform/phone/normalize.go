// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Normalizer formats numbers relative to a default region.
type Normalizer struct {
	region string
}

// NewNormalizer returns a Normalizer for the ISO 3166 region, e.g. "BR".
func NewNormalizer(region string) *Normalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = "BR"
	}
	return &Normalizer{region: region}
}

// E164 formats input to E.164. ok is false when the number cannot be parsed or is invalid.
func (n *Normalizer) E164(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}

	number, err := phonenumbers.Parse(trimmed, n.region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return "", false
	}

	return phonenumbers.Format(number, phonenumbers.E164), true
}

// GatewayDigits returns the country-code-prefixed digits the gateway expects.
// Numbers that fail validation fall back to their bare digits.
func (n *Normalizer) GatewayDigits(input string) string {
	if formatted, ok := n.E164(input); ok {
		return strings.TrimPrefix(formatted, "+")
	}
	return digitsOnly(input)
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
