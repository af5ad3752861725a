package repository

import (
	"context"

	"hooknotify_backend/platform/apperr"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opRecordAudit = "notification.repository.record_audit"

	auditUser = "HookNotify"
)

// AuditRepository appends lines to the host activity log so administrators see
// dispatch results next to the host's own events.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Record(ctx context.Context, clientID int64, line string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tblactivitylog (date, description, "user", userid, ipaddr)
		VALUES (now(), $1, $2, $3, '')`, line, auditUser, clientID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to record audit line", err).WithOp(opRecordAudit)
	}
	return nil
}
