package repository

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInspectionDate(t *testing.T) {
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-01-15",
		"2024-01-15T00:00:00Z",
		"2024-01-15T17:45:10.123Z",
		"2024-01-15T20:00:00-02:00",
		" 2024-01-15 ",
	} {
		got, err := ParseInspectionDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}

	// converted to UTC before truncating
	got, err := ParseInspectionDate("2024-01-15T23:30:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), got)

	for _, in := range []string{"", "15/01/2024", "2024-13-01", "yesterday"} {
		_, err := ParseInspectionDate(in)
		assert.ErrorIs(t, err, ErrInvalidDate, in)
	}
}

func TestEndOfDay(t *testing.T) {
	day := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)
	end := EndOfDay(day)
	assert.True(t, end.After(day.Add(23*time.Hour+59*time.Minute)))
	assert.True(t, end.Before(day.Add(24*time.Hour)))
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query     string
		page, lim int
	}{
		{"", 1, DefaultPageLimit},
		{"?page=3&limit=5", 3, 5},
		{"?page=0&limit=-1", 1, DefaultPageLimit},
		{"?page=abc&limit=1000", 1, MaxPageLimit},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/api/audit-logs"+tt.query, nil)
		page, limit := ParsePagination(c)
		assert.Equal(t, tt.page, page, tt.query)
		assert.Equal(t, tt.lim, limit, tt.query)
	}
}

func TestTrimOptional(t *testing.T) {
	assert.Nil(t, TrimOptional(nil))
	blank := "   "
	assert.Nil(t, TrimOptional(&blank))
	v := "  SkyGen "
	assert.Equal(t, "SkyGen", *TrimOptional(&v))
}
