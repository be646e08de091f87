package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"turbineops/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nextEvent reads one SSE frame and returns its event name and data.
func nextEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if name != "" || data != "" {
				return name, data
			}
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func TestStreamEvents(t *testing.T) {
	env := newTestEnv(t)
	turbine := env.createTurbine(t, "T-1000")
	inspection := env.createInspection(t, turbine.ID, "2024-01-15")

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))

	r := bufio.NewReader(resp.Body)
	name, data := nextEvent(t, r)
	assert.Equal(t, "ping", name)
	assert.Equal(t, "ok", data)

	// the subscription is live once the first frame has arrived
	w := env.do(t, http.MethodPost, "/api/inspections/"+inspection.ID+"/repair-plan", models.RoleEngineer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	name, data = nextEvent(t, r)
	assert.Equal(t, "plan", name)
	assert.Contains(t, data, `"inspectionId":"`+inspection.ID+`"`)
	assert.Contains(t, data, `"priority":"LOW"`)
}
