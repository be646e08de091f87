package services

import (
	"context"
	"math"
	"time"

	"turbineops/models"
	"turbineops/storage"

	"github.com/rs/zerolog"
)

type actorKey struct{}

// WithActor attaches the authenticated user to ctx for audit records.
func WithActor(ctx context.Context, user models.JwtUser) context.Context {
	return context.WithValue(ctx, actorKey{}, user)
}

// ActorFrom returns the user stored by WithActor.
func ActorFrom(ctx context.Context) (models.JwtUser, bool) {
	user, ok := ctx.Value(actorKey{}).(models.JwtUser)
	return user, ok
}

const auditWriteTimeout = 5 * time.Second

// Auditor writes audit records on a best-effort basis. A nil Auditor records nothing.
type Auditor struct {
	store storage.AuditStore
	log   zerolog.Logger
}

func NewAuditor(store storage.AuditStore, log zerolog.Logger) *Auditor {
	return &Auditor{store: store, log: log.With().Str("component", "audit").Logger()}
}

// Record appends entry, filling actor and time from ctx when unset.
// Failures are logged and swallowed.
func (a *Auditor) Record(ctx context.Context, entry models.AuditLog) {
	if a == nil || a.store == nil {
		return
	}
	if entry.ActorID == "" {
		if user, ok := ActorFrom(ctx); ok {
			entry.ActorID = user.ID
			entry.ActorEmail = user.Email
		}
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	// the request may already be finished; the write should still land
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()
	if err := a.store.Append(wctx, &entry); err != nil {
		a.log.Warn().Err(err).Str("kind", string(entry.Kind)).Str("entity_id", entry.EntityID).Msg("audit write failed")
	}
}

// Page returns one page of audit records, newest first.
func (a *Auditor) Page(ctx context.Context, q storage.AuditQuery) (models.AuditLogPage, error) {
	logs, total, err := a.store.List(ctx, q)
	if err != nil {
		return models.AuditLogPage{}, err
	}
	totalPages := int(math.Ceil(float64(total) / float64(q.Limit)))
	return models.AuditLogPage{
		Data:       logs,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    q.Page < totalPages,
		HasPrev:    q.Page > 1,
	}, nil
}

// Purge deletes records older than retention.
func (a *Auditor) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	return a.store.Purge(ctx, time.Now().UTC().Add(-retention))
}

func (a *Auditor) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}
