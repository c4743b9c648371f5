package app

import (
	"testing"
	"time"

	"github.com/nergy-se/dpils/pkg/period"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextDelay(t *testing.T) {
	quarter, err := cron.ParseStandard("*/15 * * * *")
	require.NoError(t, err)
	hourly, err := cron.ParseStandard("0 * * * *")
	require.NoError(t, err)

	var tests = []struct {
		name     string
		schedule cron.Schedule
		now      time.Time
		expected time.Duration
	}{
		{
			name:     "next quarter",
			schedule: quarter,
			now:      time.Date(2025, time.October, 19, 10, 7, 30, 0, time.UTC),
			expected: 7*time.Minute + 30*time.Second,
		},
		{
			name:     "on the mark waits a full interval",
			schedule: quarter,
			now:      time.Date(2025, time.October, 19, 10, 15, 0, 0, time.UTC),
			expected: 15 * time.Minute,
		},
		{
			name:     "hourly across midnight",
			schedule: hourly,
			now:      time.Date(2025, time.October, 19, 23, 59, 0, 0, time.UTC),
			expected: time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, nextDelay(tt.schedule, tt.now))
		})
	}
}

func TestSamePeriods(t *testing.T) {
	start := time.Date(2025, time.October, 19, 5, 0, 0, 0, time.UTC)
	p := period.Period{
		Start:      start,
		Stop:       start.Add(time.Hour),
		StartPrice: decimal.RequireFromString("10"),
		StopPrice:  decimal.RequireFromString("12"),
	}
	cheaper := p
	cheaper.StopPrice = decimal.RequireFromString("11")

	assert.True(t, samePeriods(nil, []period.Period{}))
	assert.True(t, samePeriods([]period.Period{p}, []period.Period{p}))
	assert.False(t, samePeriods([]period.Period{p}, nil))
	assert.False(t, samePeriods([]period.Period{p}, []period.Period{cheaper}))
}

func TestCache(t *testing.T) {
	c := &Cache{}
	assert.Nil(t, c.Get())
	s := &Snapshot{RefreshedAt: time.Now()}
	c.Set(s)
	assert.Same(t, s, c.Get())
}
