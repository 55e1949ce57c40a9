package app

import (
	"context"

	"github.com/docagent/server/internal/config"
	"github.com/docagent/server/internal/modules/translation"
	pkgcron "github.com/docagent/server/internal/pkg/cron"
)

const staleTranslationsJob = "fail_stale_translations"

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, translations *translation.Service, cfg config.TranslationConfig) {
	maxAge := cfg.StaleAfter()
	sched.Register(pkgcron.Job{
		Name:        staleTranslationsJob,
		Description: "Fail translation jobs left running after a crash",
		Interval:    cfg.SweepInterval(),
		RunOnStart:  true,
		Fn: func(ctx context.Context) error {
			_, err := translations.FailStale(ctx, maxAge)
			return err
		},
	})
}
