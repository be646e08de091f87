package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// PlanChannel is the PostgreSQL NOTIFY channel for generated repair plans.
const PlanChannel = "repair_plans"

// NotifyPlan sends payload on PlanChannel. Listening instances receive it after commit.
func NotifyPlan(ctx context.Context, db *gorm.DB, payload string) error {
	return db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", PlanChannel, payload).Error
}

// ListenPlans relays PlanChannel notifications to handle until ctx is done.
// The listener reconnects on its own after connection loss.
func ListenPlans(ctx context.Context, dsn string, log zerolog.Logger, handle func(payload string)) error {
	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn().Err(err).Int("event", int(ev)).Msg("plan listener connection event")
		}
	})
	defer listener.Close()

	if err := listener.Listen(PlanChannel); err != nil {
		return fmt.Errorf("listen %s: %w", PlanChannel, err)
	}
	log.Info().Str("channel", PlanChannel).Msg("listening for plan notifications")

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect; notifications sent while disconnected are lost
			if n == nil {
				continue
			}
			handle(n.Extra)
		case <-time.After(90 * time.Second):
			if err := listener.Ping(); err != nil {
				log.Warn().Err(err).Msg("plan listener ping failed")
			}
		}
	}
}
