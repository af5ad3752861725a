package repository

import (
	"context"
	"errors"

	"hooknotify_backend/internal/rules"
	"hooknotify_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opTemplateByCode = "notification.repository.template_by_code"
	opTemplateByID   = "notification.repository.template_by_id"
	opListTemplates  = "notification.repository.list_templates"
	opUpdateTemplate = "notification.repository.update_template"
	opUpdateRules    = "notification.repository.update_rules"
	opSeedTemplates  = "notification.repository.seed_templates"

	msgTemplateNotFound = "template not found"

	templateColumns = `id, code, message, status, rules, updated_at`
)

type TemplateRepository struct {
	pool *pgxpool.Pool
}

func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

func (r *TemplateRepository) TemplateByCode(ctx context.Context, code string) (Template, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM notify_templates WHERE code = $1`, code)
	return scanTemplate(row, opTemplateByCode)
}

func (r *TemplateRepository) TemplateByID(ctx context.Context, id int64) (Template, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM notify_templates WHERE id = $1`, id)
	return scanTemplate(row, opTemplateByID)
}

func (r *TemplateRepository) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+templateColumns+` FROM notify_templates ORDER BY id`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list templates", err).WithOp(opListTemplates)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		t, err := scanTemplate(rows, opListTemplates)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list templates", err).WithOp(opListTemplates)
	}
	return out, nil
}

// UpdateTemplate changes the body and enabled flag.
func (r *TemplateRepository) UpdateTemplate(ctx context.Context, id int64, message string, enabled bool) (Template, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notify_templates
		SET message = $2, status = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+templateColumns, id, message, enabled)
	return scanTemplate(row, opUpdateTemplate)
}

// UpdateRules replaces the rule configuration. A nil cfg clears it.
func (r *TemplateRepository) UpdateRules(ctx context.Context, id int64, cfg *rules.Config) (Template, error) {
	raw, err := rules.Encode(cfg)
	if err != nil {
		return Template{}, apperr.Wrap(apperr.KindValidation, "invalid rule configuration", err).WithOp(opUpdateRules)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE notify_templates
		SET rules = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+templateColumns, id, raw)
	return scanTemplate(row, opUpdateRules)
}

// SeedTemplates inserts disabled templates for codes that have none yet.
func (r *TemplateRepository) SeedTemplates(ctx context.Context, seeds []SeedTemplate) error {
	batch := &pgx.Batch{}
	for _, s := range seeds {
		batch.Queue(`
			INSERT INTO notify_templates (code, message, status)
			VALUES ($1, $2, FALSE)
			ON CONFLICT (code) DO NOTHING`, s.Code, s.Message)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to seed templates", err).WithOp(opSeedTemplates)
	}
	return nil
}

func scanTemplate(row pgx.Row, op string) (Template, error) {
	var t Template
	var raw []byte
	if err := row.Scan(&t.ID, &t.Code, &t.Message, &t.Enabled, &raw, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Template{}, apperr.NotFound(msgTemplateNotFound).WithOp(op)
		}
		return Template{}, apperr.Wrap(apperr.KindInternal, "failed to read template", err).WithOp(op)
	}

	cfg, err := rules.Parse(raw)
	if err != nil {
		return Template{}, apperr.Wrap(apperr.KindInternal, "stored rule configuration is invalid", err).WithOp(op)
	}
	t.Rules = cfg
	return t, nil
}
