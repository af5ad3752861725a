package notification

import (
	"context"

	"hooknotify_backend/internal/gateway"
)

// MaintenanceReport summarises one maintenance run.
type MaintenanceReport struct {
	Skipped        string `json:"skipped,omitempty"`
	LogsPurged     bool   `json:"logsPurged"`
	AccountUpdated bool   `json:"accountUpdated"`
}

// Maintenance is the daily housekeeping job: the monthly message log purge
// and the refresh of the cached gateway account.
type Maintenance struct {
	router *Router
	lock   DailyLock
}

// NewMaintenance returns the job. A nil lock lets every run through.
func NewMaintenance(router *Router, lock DailyLock) *Maintenance {
	return &Maintenance{router: router, lock: lock}
}

// Run performs the daily work at most once per calendar day. The log purge
// happens on the first day of the month when enabled. A failed run gives the
// day back to the lock.
func (m *Maintenance) Run(ctx context.Context) (report MaintenanceReport, err error) {
	r := m.router
	now := r.now()

	cfg, err := r.configs.Load(ctx)
	if err != nil {
		return MaintenanceReport{}, err
	}
	if cfg == nil {
		return MaintenanceReport{Skipped: string(OutcomeConfigurationMissing)}, nil
	}
	if !cfg.Enabled {
		return MaintenanceReport{Skipped: string(OutcomeModuleDisabled)}, nil
	}

	if m.lock != nil {
		day := now.Format("2006-01-02")
		var acquired bool
		acquired, err = m.lock.Acquire(ctx, day)
		if err != nil {
			return MaintenanceReport{}, err
		}
		if !acquired {
			return MaintenanceReport{Skipped: "already_ran_today"}, nil
		}
		defer func() {
			if err == nil {
				return
			}
			if releaseErr := m.lock.Release(context.WithoutCancel(ctx), day); releaseErr != nil {
				r.log.Error("release maintenance lock", "day", day, "error", releaseErr)
			}
		}()
	}

	if now.Day() == 1 && cfg.AutoPurgeLogs {
		r.audit(ctx, TagDailyCronJob, 0, "Rotina de Limpeza de Registros de Logs")
		if err := r.logs.Clear(ctx); err != nil {
			return report, err
		}
		report.LogsPurged = true
	}

	gw := r.gatewayFor(cfg)
	if gw == nil {
		return report, nil
	}
	res, err := gw.Authenticate(ctx)
	if err != nil {
		return report, err
	}
	if res.Kind() != gateway.KindSuccess {
		r.log.Warn("gateway account refresh failed", "result", res.Raw())
		return report, nil
	}
	if err := r.configs.SaveAccount(ctx, accountSnapshot(res)); err != nil {
		return report, err
	}
	r.audit(ctx, TagDailyCronJob, 0, "Atualização dos Dados do Serviço")
	report.AccountUpdated = true
	return report, nil
}
