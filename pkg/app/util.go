package app

import (
	"time"

	"github.com/nergy-se/dpils/pkg/period"
	"github.com/robfig/cron/v3"
)

// nextDelay returns the time until the next tick of schedule after now.
func nextDelay(schedule cron.Schedule, now time.Time) time.Duration {
	d := schedule.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func samePeriods(a, b []period.Period) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) ||
			!a[i].StartPrice.Equal(b[i].StartPrice) ||
			!a[i].StopPrice.Equal(b[i].StopPrice) {
			return false
		}
	}
	return true
}
