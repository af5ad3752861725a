// Package host models the billing platform entities the dispatch engine reads.
// The engine never writes to them; the host owns their lifecycle.
package host

import (
	"context"
	"strings"
	"time"
)

type Client struct {
	ID          int64
	FirstName   string
	LastName    string
	CompanyName string
	Email       string
	PhoneNumber string
	Status      string
	CreatedAt   time.Time
}

// FullName joins first and last name.
func (c Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type Invoice struct {
	ID            int64
	ClientID      int64
	TotalCents    int64
	Status        string
	PaymentMethod string
	Date          time.Time
	DueDate       time.Time
}

type Ticket struct {
	ID             int64
	Mask           string
	ClientID       int64
	DepartmentID   int64
	DepartmentName string
	Subject        string
	Status         string
	Priority       string
}

type Product struct {
	ID        int64
	Name      string
	GroupName string
}

type Service struct {
	ID           int64
	ClientID     int64
	ServerID     int64
	Domain       string
	Username     string
	Status       string
	BillingCycle string
	AmountCents  int64
	RegDate      time.Time
	NextDueDate  time.Time
	Product      Product
}

// ActivityEntry is one row of the host audit log.
type ActivityEntry struct {
	ID          int64
	Description string
	User        string
	ClientID    int64
	IPAddress   string
	Date        time.Time
}

// Reader is the lookup capability the dispatch engine needs from the host.
// Lookups of missing entities return an apperr NotFound error.
type Reader interface {
	Client(ctx context.Context, id int64) (Client, error)
	Invoice(ctx context.Context, id int64) (Invoice, error)
	Ticket(ctx context.Context, id int64) (Ticket, error)
	Service(ctx context.Context, id int64) (Service, error)
	// CustomFieldValue returns "" when the client has no value for the field.
	CustomFieldValue(ctx context.Context, fieldID, clientID int64) (string, error)
	// LatestSystemActivity returns the newest audit row written by the host itself.
	LatestSystemActivity(ctx context.Context) (ActivityEntry, error)
}
