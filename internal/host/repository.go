package host

import (
	"context"
	"errors"
	"time"

	"hooknotify_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opClient         = "host.repository.client"
	opInvoice        = "host.repository.invoice"
	opTicket         = "host.repository.ticket"
	opService        = "host.repository.service"
	opCustomField    = "host.repository.custom_field"
	opLatestActivity = "host.repository.latest_system_activity"

	systemActivityUser = "System"
)

// Repository reads host entities straight from the host database tables.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Client(ctx context.Context, id int64) (Client, error) {
	var c Client
	var createdAt pgtype.Timestamp
	err := r.pool.QueryRow(ctx, `
		SELECT id, firstname, lastname, companyname, email, phonenumber, status, created_at
		FROM tblclients
		WHERE id = $1`, id,
	).Scan(&c.ID, &c.FirstName, &c.LastName, &c.CompanyName, &c.Email, &c.PhoneNumber, &c.Status, &createdAt)
	if err != nil {
		return Client{}, mapErr(err, opClient, "client not found")
	}
	c.CreatedAt = timeOf(createdAt)
	return c, nil
}

func (r *Repository) Invoice(ctx context.Context, id int64) (Invoice, error) {
	var inv Invoice
	var date, due pgtype.Date
	err := r.pool.QueryRow(ctx, `
		SELECT id, userid, (total * 100)::bigint, status, paymentmethod, date, duedate
		FROM tblinvoices
		WHERE id = $1`, id,
	).Scan(&inv.ID, &inv.ClientID, &inv.TotalCents, &inv.Status, &inv.PaymentMethod, &date, &due)
	if err != nil {
		return Invoice{}, mapErr(err, opInvoice, "invoice not found")
	}
	inv.Date = dateOf(date)
	inv.DueDate = dateOf(due)
	return inv, nil
}

func (r *Repository) Ticket(ctx context.Context, id int64) (Ticket, error) {
	var t Ticket
	err := r.pool.QueryRow(ctx, `
		SELECT t.id, t.tid, t.userid, t.did, COALESCE(d.name, ''), t.title, t.status, t.urgency
		FROM tbltickets t
		LEFT JOIN tblticketdepartments d ON d.id = t.did
		WHERE t.id = $1`, id,
	).Scan(&t.ID, &t.Mask, &t.ClientID, &t.DepartmentID, &t.DepartmentName, &t.Subject, &t.Status, &t.Priority)
	if err != nil {
		return Ticket{}, mapErr(err, opTicket, "ticket not found")
	}
	return t, nil
}

func (r *Repository) Service(ctx context.Context, id int64) (Service, error) {
	var s Service
	var regDate, nextDue pgtype.Date
	err := r.pool.QueryRow(ctx, `
		SELECT h.id, h.userid, h.server, h.domain, h.username, h.domainstatus, h.billingcycle,
		       (h.amount * 100)::bigint, h.regdate, h.nextduedate,
		       p.id, p.name, COALESCE(g.name, '')
		FROM tblhosting h
		JOIN tblproducts p ON p.id = h.packageid
		LEFT JOIN tblproductgroups g ON g.id = p.gid
		WHERE h.id = $1`, id,
	).Scan(&s.ID, &s.ClientID, &s.ServerID, &s.Domain, &s.Username, &s.Status, &s.BillingCycle,
		&s.AmountCents, &regDate, &nextDue,
		&s.Product.ID, &s.Product.Name, &s.Product.GroupName)
	if err != nil {
		return Service{}, mapErr(err, opService, "service not found")
	}
	s.RegDate = dateOf(regDate)
	s.NextDueDate = dateOf(nextDue)
	return s, nil
}

func (r *Repository) CustomFieldValue(ctx context.Context, fieldID, clientID int64) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `
		SELECT value
		FROM tblcustomfieldsvalues
		WHERE fieldid = $1 AND relid = $2
		LIMIT 1`, fieldID, clientID,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to read custom field", err).WithOp(opCustomField)
	}
	return value, nil
}

func (r *Repository) LatestSystemActivity(ctx context.Context) (ActivityEntry, error) {
	var e ActivityEntry
	var date pgtype.Timestamp
	err := r.pool.QueryRow(ctx, `
		SELECT id, description, "user", userid, ipaddr, date
		FROM tblactivitylog
		WHERE "user" = $1
		ORDER BY id DESC
		LIMIT 1`, systemActivityUser,
	).Scan(&e.ID, &e.Description, &e.User, &e.ClientID, &e.IPAddress, &date)
	if err != nil {
		return ActivityEntry{}, mapErr(err, opLatestActivity, "no system activity recorded")
	}
	e.Date = timeOf(date)
	return e, nil
}

func mapErr(err error, op, notFound string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(notFound).WithOp(op)
	}
	return apperr.Wrap(apperr.KindInternal, "host lookup failed", err).WithOp(op)
}

// The host stores naive local timestamps.
func timeOf(ts pgtype.Timestamp) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	t := ts.Time
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
}

func dateOf(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	t := d.Time
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

var _ Reader = (*Repository)(nil)
