package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryTimeouts(t *testing.T) {
	t.Cleanup(func() { SetQueryTimeouts(DefaultQueryTimeout, DefaultJobTimeout) })

	SetQueryTimeouts(3*time.Second, time.Minute)
	query, job := QueryTimeouts()
	assert.Equal(t, 3*time.Second, query)
	assert.Equal(t, time.Minute, job)

	ctx, cancel := GetDefaultQueryContext(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(3*time.Second), deadline, time.Second)

	SetQueryTimeouts(0, -1)
	query, job = QueryTimeouts()
	assert.Equal(t, DefaultQueryTimeout, query)
	assert.Equal(t, DefaultJobTimeout, job)
}
