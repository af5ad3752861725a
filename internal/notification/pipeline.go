package notification

import (
	"context"
	"errors"
	"time"

	"hooknotify_backend/internal/host"
	"hooknotify_backend/internal/rules"
	"hooknotify_backend/internal/templates"
)

// Event tags accepted from the host.
const (
	TagInvoiceCreated            = "InvoiceCreated"
	TagInvoicePaymentReminder    = "InvoicePaymentReminder"
	TagInvoicePaid               = "InvoicePaid"
	TagInvoiceFirstOverdueAlert  = "InvoiceFirstOverdueAlert"
	TagInvoiceSecondOverdueAlert = "InvoiceSecondOverdueAlert"
	TagInvoiceThirdOverdueAlert  = "InvoiceThirdOverdueAlert"
	TagTicketOpen                = "TicketOpen"
	TagTicketAdminReply          = "TicketAdminReply"
	TagAfterModuleCreate         = "AfterModuleCreate"
	TagAfterModuleSuspend        = "AfterModuleSuspend"
	TagAfterModuleUnsuspend      = "AfterModuleUnsuspend"
	TagAfterModuleTerminate      = "AfterModuleTerminate"
	TagAfterModuleReady          = "AfterModuleReady"
	TagClientAdd                 = "ClientAdd"
	TagClientLogin               = "ClientLogin"
	TagClientChangePassword      = "ClientChangePassword"
	TagClientAreaPageLogin       = "ClientAreaPageLogin"
	TagDailyCronJob              = "DailyCronJob"

	// logTagManual labels operator messages in the message log.
	logTagManual = "manualmessage"
)

var (
	errMissingID  = errors.New("payload carries no entity id")
	errStaleEvent = errors.New("no recent audit row explains the event")
)

// subject holds the entities one event resolved to.
type subject struct {
	client  host.Client
	invoice *host.Invoice
	ticket  *host.Ticket
	service *host.Service
	staff   string
	at      time.Time
	ip      string
}

func (s subject) facts(now time.Time) rules.Facts {
	f := rules.Facts{
		Now:          now,
		ClientID:     s.client.ID,
		ClientEmail:  s.client.Email,
		ClientStatus: s.client.Status,
		StaffName:    s.staff,
	}
	if s.invoice != nil {
		f.InvoiceTotal = rules.Money(s.invoice.TotalCents)
		f.PaymentMethod = s.invoice.PaymentMethod
	}
	if s.ticket != nil {
		f.DepartmentID = s.ticket.DepartmentID
	}
	if s.service != nil {
		f.ServerID = s.service.ServerID
		f.ProductID = s.service.Product.ID
		f.ProductName = s.service.Product.Name
	}
	return f
}

type resolver func(ctx context.Context, r *Router, p Payload, now time.Time) (subject, error)

type binder func(s subject) templates.Vars

// pipeline is everything that differs between two events. The surrounding
// consent, template, rules, render and send steps are shared.
type pipeline struct {
	resolve    resolver
	predicates []rules.Predicate
	bind       binder
	attach     bool
	// adminOnly pipelines are run by operator actions, never by hooks.
	adminOnly bool
}

var (
	invoicePredicates        = []rules.Predicate{rules.Client, rules.MinimumValue, rules.Weekday}
	invoiceGatewayPredicates = []rules.Predicate{rules.Client, rules.MinimumValue, rules.Weekday, rules.PaymentGateway}
	ticketPredicates         = []rules.Predicate{rules.Client, rules.Weekday, rules.Department}
	replyPredicates          = []rules.Predicate{rules.Client, rules.Weekday, rules.Department, rules.StaffName}
	servicePredicates        = []rules.Predicate{rules.Client, rules.Weekday, rules.ServerID, rules.ProductID, rules.ProductNameParts}
	registrationPredicates   = []rules.Predicate{rules.EmailParts, rules.Weekday}
	loginPredicates          = []rules.Predicate{rules.Client, rules.EmailParts, rules.Weekday, rules.ClientStatus}
)

var pipelines = map[string]pipeline{
	TagInvoiceCreated:            {resolve: invoiceBy("invoiceid"), predicates: invoicePredicates, bind: bindInvoice, attach: true},
	TagInvoicePaymentReminder:    {resolve: invoiceBy("invoiceid"), predicates: invoiceGatewayPredicates, bind: bindInvoice, attach: true},
	TagInvoicePaid:               {resolve: invoiceBy("invoiceid"), predicates: invoiceGatewayPredicates, bind: bindInvoice},
	TagInvoiceFirstOverdueAlert:  {resolve: invoiceBy("relid", "invoiceid"), predicates: invoicePredicates, bind: bindInvoice, attach: true},
	TagInvoiceSecondOverdueAlert: {resolve: invoiceBy("relid", "invoiceid"), predicates: invoicePredicates, bind: bindInvoice, attach: true},
	TagInvoiceThirdOverdueAlert:  {resolve: invoiceBy("relid", "invoiceid"), predicates: invoicePredicates, bind: bindInvoice, attach: true},
	TagTicketOpen:                {resolve: resolveTicket, predicates: ticketPredicates, bind: bindTicket},
	TagTicketAdminReply:          {resolve: resolveTicket, predicates: replyPredicates, bind: bindTicket},
	TagAfterModuleCreate:         {resolve: resolveService, predicates: servicePredicates, bind: bindService},
	TagAfterModuleSuspend:        {resolve: resolveService, predicates: servicePredicates, bind: bindService},
	TagAfterModuleUnsuspend:      {resolve: resolveService, predicates: servicePredicates, bind: bindService},
	TagAfterModuleTerminate:      {resolve: resolveService, predicates: servicePredicates, bind: bindService},
	TagAfterModuleReady:          {resolve: resolveService, bind: bindService, adminOnly: true},
	TagClientAdd:                 {resolve: resolveClient, predicates: registrationPredicates, bind: bindRegistration},
	TagClientLogin:               {resolve: resolveClient, predicates: loginPredicates, bind: bindLogin},
	TagClientChangePassword:      {resolve: resolveClient, predicates: loginPredicates, bind: bindLogin},
	TagClientAreaPageLogin:       {resolve: resolveFailedLogin, predicates: loginPredicates, bind: bindLogin},
}

// SupportedPredicates returns the ordered predicates an event evaluates.
func SupportedPredicates(tag string) ([]rules.Predicate, bool) {
	pl, ok := pipelines[tag]
	if !ok {
		return nil, false
	}
	return pl.predicates, true
}

func invoiceBy(keys ...string) resolver {
	return func(ctx context.Context, r *Router, p Payload, _ time.Time) (subject, error) {
		id, ok := p.ID(keys...)
		if !ok {
			return subject{}, errMissingID
		}
		inv, err := r.host.Invoice(ctx, id)
		if err != nil {
			return subject{}, err
		}
		client, err := r.host.Client(ctx, inv.ClientID)
		if err != nil {
			return subject{}, err
		}
		return subject{client: client, invoice: &inv}, nil
	}
}

func resolveTicket(ctx context.Context, r *Router, p Payload, _ time.Time) (subject, error) {
	id, ok := p.ID("ticketid")
	if !ok {
		return subject{}, errMissingID
	}
	t, err := r.host.Ticket(ctx, id)
	if err != nil {
		return subject{}, err
	}
	clientID, ok := p.ID("userid")
	if !ok {
		clientID = t.ClientID
	}
	client, err := r.host.Client(ctx, clientID)
	if err != nil {
		return subject{}, err
	}
	return subject{client: client, ticket: &t, staff: p.String("admin")}, nil
}

func resolveService(ctx context.Context, r *Router, p Payload, _ time.Time) (subject, error) {
	id, ok := p.ID("params.serviceid", "serviceid")
	if !ok {
		return subject{}, errMissingID
	}
	svc, err := r.host.Service(ctx, id)
	if err != nil {
		return subject{}, err
	}
	client, err := r.host.Client(ctx, svc.ClientID)
	if err != nil {
		return subject{}, err
	}
	return subject{client: client, service: &svc}, nil
}

func resolveClient(ctx context.Context, r *Router, p Payload, now time.Time) (subject, error) {
	id, ok := p.ID("userid", "user.id", "client_id")
	if !ok {
		return subject{}, errMissingID
	}
	client, err := r.host.Client(ctx, id)
	if err != nil {
		return subject{}, err
	}
	return subject{client: client, at: now, ip: p.String("ip")}, nil
}

// resolveFailedLogin finds the client of the failed login the host just
// recorded. The login page hook carries no client, so the newest host audit
// row is read and accepted only when it is a fresh failed-login entry.
func resolveFailedLogin(ctx context.Context, r *Router, _ Payload, now time.Time) (subject, error) {
	entry, err := r.host.LatestSystemActivity(ctx)
	if err != nil {
		return subject{}, err
	}
	if !r.correlator.Matches(entry.Description, entry.Date, now) {
		return subject{}, errStaleEvent
	}
	client, err := r.host.Client(ctx, entry.ClientID)
	if err != nil {
		return subject{}, err
	}
	return subject{client: client, at: entry.Date, ip: entry.IPAddress}, nil
}

func bindInvoice(s subject) templates.Vars { return templates.InvoiceVars(*s.invoice) }

func bindTicket(s subject) templates.Vars { return templates.TicketVars(*s.ticket, s.staff) }

func bindService(s subject) templates.Vars { return templates.ServiceVars(*s.service) }

func bindRegistration(s subject) templates.Vars { return templates.RegistrationVars(s.client) }

func bindLogin(s subject) templates.Vars { return templates.LoginVars(s.at, s.ip) }
