package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"turbineops/storage"
	"turbineops/utils"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// stalePlanBatch bounds how many plans one refresh run regenerates.
const stalePlanBatch = 200

// RefreshStalePlans regenerates plans whose findings changed after they were written.
// It keeps going past individual failures and returns how many plans it rewrote.
func RefreshStalePlans(ctx context.Context, db *gorm.DB, planner *Planner, log zerolog.Logger) (int, error) {
	ids, err := storage.ListStalePlanInspections(ctx, db, stalePlanBatch)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	var errs []error
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := planner.Generate(ctx, id); err != nil {
			log.Error().Err(err).Str("inspection_id", id).Msg("stale plan refresh failed")
			errs = append(errs, err)
			continue
		}
		refreshed++
	}
	return refreshed, errors.Join(errs...)
}

// PurgeAuditLogs removes audit records older than retentionDays. Zero keeps everything.
func PurgeAuditLogs(ctx context.Context, auditor *Auditor, retentionDays int) (int64, error) {
	if auditor == nil || retentionDays <= 0 {
		return 0, nil
	}
	return auditor.Purge(ctx, time.Duration(retentionDays)*24*time.Hour)
}

// Scheduler runs background jobs on cron schedules. A job whose previous run
// is still going is skipped.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

func NewScheduler(log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "cron").Logger()
	return &Scheduler{
		cron: cron.New(cron.WithLogger(cron.PrintfLogger(&log))),
		log:  log,
	}
}

// Add registers fn under spec. Each run gets its own timeout context.
func (s *Scheduler) Add(spec, name string, fn func(ctx context.Context) error) error {
	var running int32
	_, err := s.cron.AddFunc(spec, func() {
		if !atomic.CompareAndSwapInt32(&running, 0, 1) {
			s.log.Warn().Str("job", name).Msg("previous run still in progress, skipping")
			return
		}
		defer atomic.StoreInt32(&running, 0)

		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Str("job", name).Interface("panic", r).Msg("job panicked")
			}
		}()

		ctx, cancel := utils.GetJobQueryContext(context.Background())
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			s.log.Error().Err(err).Str("job", name).Dur("took", time.Since(start)).Msg("job failed")
			return
		}
		s.log.Info().Str("job", name).Dur("took", time.Since(start)).Msg("job finished")
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and returns a context that is done when running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
