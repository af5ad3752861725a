package repository

import (
	"context"
	"time"

	"hooknotify_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opAppendLog = "notification.repository.append_log"
	opListLogs  = "notification.repository.list_logs"
	opClearLogs = "notification.repository.clear_logs"
)

// MessageLogRepository is the append-only log of confirmed dispatches.
type MessageLogRepository struct {
	pool *pgxpool.Pool
}

func NewMessageLogRepository(pool *pgxpool.Pool) *MessageLogRepository {
	return &MessageLogRepository{pool: pool}
}

func (r *MessageLogRepository) Append(ctx context.Context, e LogEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notify_message_logs (id, message, code, client_id, message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Message, e.Code, e.ClientID, e.MessageID, e.CreatedAt,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to append message log", err).WithOp(opAppendLog)
	}
	return nil
}

// List returns the newest entries first.
func (r *MessageLogRepository) List(ctx context.Context, limit int) ([]LogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, message, code, client_id, message_id, created_at
		FROM notify_message_logs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list message logs", err).WithOp(opListLogs)
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.Message, &e.Code, &e.ClientID, &e.MessageID, &e.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to read message log", err).WithOp(opListLogs)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list message logs", err).WithOp(opListLogs)
	}
	return out, nil
}

// Clear removes every entry.
func (r *MessageLogRepository) Clear(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `TRUNCATE notify_message_logs`); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to clear message logs", err).WithOp(opClearLogs)
	}
	return nil
}
