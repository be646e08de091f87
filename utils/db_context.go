package utils

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	// DefaultQueryTimeout bounds the store calls of one API request.
	DefaultQueryTimeout = 10 * time.Second
	// DefaultJobTimeout bounds one cron run or one object upload.
	DefaultJobTimeout = 2 * time.Minute
)

var (
	queryTimeout atomic.Int64
	jobTimeout   atomic.Int64
)

func init() {
	SetQueryTimeouts(DefaultQueryTimeout, DefaultJobTimeout)
}

// SetQueryTimeouts replaces the request and job budgets. Non-positive values
// restore the defaults.
func SetQueryTimeouts(query, job time.Duration) {
	if query <= 0 {
		query = DefaultQueryTimeout
	}
	if job <= 0 {
		job = DefaultJobTimeout
	}
	queryTimeout.Store(int64(query))
	jobTimeout.Store(int64(job))
}

// QueryTimeouts reports the budgets currently in effect.
func QueryTimeouts() (query, job time.Duration) {
	return time.Duration(queryTimeout.Load()), time.Duration(jobTimeout.Load())
}

// GetQueryContext bounds parent by timeout. A nil parent means background.
func GetQueryContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

// GetDefaultQueryContext bounds parent by the request budget.
func GetDefaultQueryContext(parent context.Context) (context.Context, context.CancelFunc) {
	query, _ := QueryTimeouts()
	return GetQueryContext(parent, query)
}

// GetJobQueryContext bounds parent by the job budget.
func GetJobQueryContext(parent context.Context) (context.Context, context.CancelFunc) {
	_, job := QueryTimeouts()
	return GetQueryContext(parent, job)
}
