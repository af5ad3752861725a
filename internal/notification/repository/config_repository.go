package repository

import (
	"context"
	"encoding/json"
	"errors"

	"hooknotify_backend/platform/apperr"
	"hooknotify_backend/platform/secretbox"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opLoadConfig  = "notification.repository.load_config"
	opSaveConfig  = "notification.repository.save_config"
	opSaveAccount = "notification.repository.save_account"
)

// ConfigRepository stores the single module configuration row. The gateway
// secret is sealed before it reaches the database.
type ConfigRepository struct {
	pool *pgxpool.Pool
	box  *secretbox.Box
}

func NewConfigRepository(pool *pgxpool.Pool, box *secretbox.Box) *ConfigRepository {
	return &ConfigRepository{pool: pool, box: box}
}

// Load returns nil, nil when the module was never configured.
func (r *ConfigRepository) Load(ctx context.Context) (*ModuleConfig, error) {
	var (
		cfg            ModuleConfig
		sealed         string
		consentFieldID pgtype.Int8
		phoneFieldID   pgtype.Int8
		account        []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT api, secret_enc, status, log_system, log_autoremove, consent_field_id, phone_field_id, account, updated_at
		FROM notify_config
		WHERE id = 1`,
	).Scan(&cfg.API, &sealed, &cfg.Enabled, &cfg.PersistLog, &cfg.AutoPurgeLogs, &consentFieldID, &phoneFieldID, &account, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load module configuration", err).WithOp(opLoadConfig)
	}

	secret, err := r.box.Open(sealed)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to decrypt gateway secret", err).WithOp(opLoadConfig)
	}
	cfg.Secret = secret
	cfg.ConsentFieldID = consentFieldID.Int64
	cfg.PhoneFieldID = phoneFieldID.Int64

	if len(account) > 0 {
		var snapshot AccountSnapshot
		if err := json.Unmarshal(account, &snapshot); err == nil {
			cfg.Account = &snapshot
		}
	}
	return &cfg, nil
}

// Save replaces the configuration row.
func (r *ConfigRepository) Save(ctx context.Context, cfg ModuleConfig) error {
	sealed, err := r.box.Seal(cfg.Secret)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to encrypt gateway secret", err).WithOp(opSaveConfig)
	}

	account, err := marshalAccount(cfg.Account)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to encode account snapshot", err).WithOp(opSaveConfig)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO notify_config (id, api, secret_enc, status, log_system, log_autoremove, consent_field_id, phone_field_id, account, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			api = EXCLUDED.api,
			secret_enc = EXCLUDED.secret_enc,
			status = EXCLUDED.status,
			log_system = EXCLUDED.log_system,
			log_autoremove = EXCLUDED.log_autoremove,
			consent_field_id = EXCLUDED.consent_field_id,
			phone_field_id = EXCLUDED.phone_field_id,
			account = EXCLUDED.account,
			updated_at = now()`,
		cfg.API, sealed, cfg.Enabled, cfg.PersistLog, cfg.AutoPurgeLogs,
		nullableID(cfg.ConsentFieldID), nullableID(cfg.PhoneFieldID), account,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to save module configuration", err).WithOp(opSaveConfig)
	}
	return nil
}

// SaveAccount updates only the cached account snapshot.
func (r *ConfigRepository) SaveAccount(ctx context.Context, snapshot AccountSnapshot) error {
	account, err := marshalAccount(&snapshot)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to encode account snapshot", err).WithOp(opSaveAccount)
	}

	tag, err := r.pool.Exec(ctx, `UPDATE notify_config SET account = $1, updated_at = now() WHERE id = 1`, account)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to save account snapshot", err).WithOp(opSaveAccount)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("module is not configured").WithOp(opSaveAccount)
	}
	return nil
}

func marshalAccount(snapshot *AccountSnapshot) ([]byte, error) {
	if snapshot == nil {
		return nil, nil
	}
	return json.Marshal(snapshot)
}

func nullableID(id int64) pgtype.Int8 {
	return pgtype.Int8{Int64: id, Valid: id > 0}
}
