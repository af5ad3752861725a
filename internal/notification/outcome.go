package notification

// OutcomeKind classifies how a dispatch attempt ended.
type OutcomeKind string

const (
	OutcomeSent                  OutcomeKind = "sent"
	OutcomeConfigurationMissing  OutcomeKind = "configuration_missing"
	OutcomeModuleDisabled        OutcomeKind = "module_disabled"
	OutcomeUnknownEvent          OutcomeKind = "unknown_event"
	OutcomeEntityMissing         OutcomeKind = "entity_missing"
	OutcomeStaleEvent            OutcomeKind = "stale_event"
	OutcomeConsentDenied         OutcomeKind = "consent_denied"
	OutcomeTemplateDisabled      OutcomeKind = "template_disabled"
	OutcomeRuleRejected          OutcomeKind = "rule_rejected"
	OutcomeRecipientMissing      OutcomeKind = "recipient_missing"
	OutcomeGatewayPrecondition   OutcomeKind = "gateway_precondition"
	OutcomeGatewayTransportError OutcomeKind = "gateway_transport_error"
	OutcomeGatewayLogicalFailure OutcomeKind = "gateway_logical_failure"
	OutcomeLookupFailed          OutcomeKind = "lookup_failed"
	OutcomeMaintenanceQueued     OutcomeKind = "maintenance_queued"
)

// Outcome is the result of one dispatch attempt. It never carries a Go error:
// every failure ends the attempt locally and is reported here.
type Outcome struct {
	Event    string      `json:"event"`
	Kind     OutcomeKind `json:"outcome"`
	ClientID int64       `json:"clientId,omitempty"`
	// Detail names the rejecting predicate or carries the gateway error text.
	Detail     string   `json:"detail,omitempty"`
	MessageIDs []string `json:"messageIds,omitempty"`
}

// Sent reports whether the gateway queued the message.
func (o Outcome) Sent() bool { return o.Kind == OutcomeSent }

func outcome(tag string, kind OutcomeKind) Outcome {
	return Outcome{Event: tag, Kind: kind}
}
