package templates

import (
	"strconv"
	"time"

	"hooknotify_backend/internal/host"
	"hooknotify_backend/internal/rules"
)

const (
	DateLayout     = "02/01/2006"
	DateTimeLayout = "02/01/2006 15:04"
)

// ClientVars is the default layer every message gets.
func ClientVars(c host.Client, now time.Time) Vars {
	return Vars{
		"client_id":        strconv.FormatInt(c.ID, 10),
		"client_name":      c.FullName(),
		"client_firstname": c.FirstName,
		"client_lastname":  c.LastName,
		"client_company":   c.CompanyName,
		"client_email":     c.Email,
		"client_status":    c.Status,
		"date":             now.Format(DateLayout),
		"hour":             now.Format("15:04"),
	}
}

func InvoiceVars(inv host.Invoice) Vars {
	return Vars{
		"invoice_id":            strconv.FormatInt(inv.ID, 10),
		"invoice_total":         rules.Money(inv.TotalCents).String(),
		"invoice_status":        inv.Status,
		"invoice_paymentmethod": inv.PaymentMethod,
		"invoice_date":          formatDate(inv.Date),
		"invoice_duedate":       formatDate(inv.DueDate),
	}
}

// TicketVars binds ticket fields. staff is the replying operator, if any.
func TicketVars(t host.Ticket, staff string) Vars {
	return Vars{
		"ticket_id":         strconv.FormatInt(t.ID, 10),
		"ticket_tid":        t.Mask,
		"ticket_subject":    t.Subject,
		"ticket_department": t.DepartmentName,
		"ticket_status":     t.Status,
		"ticket_priority":   t.Priority,
		"ticket_staff":      staff,
	}
}

func ServiceVars(s host.Service) Vars {
	return Vars{
		"service_id":           strconv.FormatInt(s.ID, 10),
		"service_product":      s.Product.Name,
		"service_group":        s.Product.GroupName,
		"service_domain":       s.Domain,
		"service_username":     s.Username,
		"service_status":       s.Status,
		"service_billingcycle": s.BillingCycle,
		"service_amount":       rules.Money(s.AmountCents).String(),
		"service_regdate":      formatDate(s.RegDate),
		"service_nextduedate":  formatDate(s.NextDueDate),
	}
}

// RegistrationVars binds sign-up metadata.
func RegistrationVars(c host.Client) Vars {
	return Vars{
		"register_date": formatDate(c.CreatedAt),
	}
}

// LoginVars binds the time and origin of a login-related event.
func LoginVars(at time.Time, ip string) Vars {
	return Vars{
		"login_date": at.Format(DateTimeLayout),
		"login_ip":   ip,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
