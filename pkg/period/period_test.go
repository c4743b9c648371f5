package period

import (
	"math/rand"
	"testing"
	"time"

	"github.com/nergy-se/dpils/pkg/price"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour int) time.Time {
	return time.Date(2025, time.October, day, hour, 0, 0, 0, time.UTC)
}

// hours builds one day of points from hour -> price.
func hours(day int, prices map[int]string) []price.Point {
	var points []price.Point
	for h, p := range prices {
		points = append(points, price.Point{Time: at(day, h), Price: decimal.RequireFromString(p)})
	}
	return points
}

func starts(periods []Period) []time.Time {
	var s []time.Time
	for _, p := range periods {
		s = append(s, p.Start)
	}
	return s
}

func TestLowest(t *testing.T) {
	var tests = []struct {
		name     string
		points   []price.Point
		expected []time.Time
	}{
		{
			name:     "empty",
			points:   nil,
			expected: nil,
		},
		{
			name:     "single point",
			points:   hours(19, map[int]string{5: "10"}),
			expected: nil,
		},
		{
			name: "only blackout hours",
			points: hours(19, map[int]string{
				0: "1", 1: "1", 2: "1", 3: "1",
			}),
			expected: nil,
		},
		{
			name: "worked example",
			points: hours(19, map[int]string{
				4: "50", 5: "10", 6: "12", 7: "60", 8: "11", 9: "58",
			}),
			expected: []time.Time{at(19, 5)},
		},
		{
			name: "blackout start is never paired",
			points: hours(19, map[int]string{
				3: "10", 4: "10", 5: "100",
			}),
			expected: nil,
		},
		{
			name: "blackout price does not raise threshold",
			points: hours(19, map[int]string{
				0: "500", 4: "60", 5: "60", 6: "100",
			}),
			expected: []time.Time{at(19, 4)},
		},
		{
			name: "price equal to threshold is rejected",
			points: hours(19, map[int]string{
				5: "70", 6: "70", 7: "100",
			}),
			expected: nil,
		},
		{
			name: "stop hour more than 20 percent dearer",
			points: hours(19, map[int]string{
				5: "10", 6: "12.01", 7: "100",
			}),
			expected: nil,
		},
		{
			name: "stop hour exactly 20 percent dearer",
			points: hours(19, map[int]string{
				5: "10", 6: "12", 7: "100",
			}),
			expected: []time.Time{at(19, 5)},
		},
		{
			name: "spacing rejects close candidates",
			points: hours(19, map[int]string{
				4: "100",
				5: "10", 6: "10", 7: "11", 8: "11", 9: "100",
				12: "20", 13: "20", 14: "100",
			}),
			expected: []time.Time{at(19, 5), at(19, 12)},
		},
		{
			name: "spacing of exactly four hours is allowed",
			points: hours(19, map[int]string{
				5: "10", 6: "10", 7: "100",
				9: "11", 10: "11", 11: "100",
			}),
			expected: []time.Time{at(19, 5), at(19, 9)},
		},
		{
			name: "at most three per day",
			points: hours(19, map[int]string{
				4: "100",
				5: "10", 6: "10", 7: "100",
				10: "11", 11: "11", 12: "100",
				15: "12", 16: "12", 17: "100",
				20: "13", 21: "13", 22: "100",
			}),
			expected: []time.Time{at(19, 5), at(19, 10), at(19, 15)},
		},
		{
			name: "equal prices scan earliest first",
			points: hours(19, map[int]string{
				5: "10", 6: "10", 7: "10", 8: "10", 9: "100",
			}),
			expected: []time.Time{at(19, 5)},
		},
		{
			name: "gap means no pair",
			points: hours(19, map[int]string{
				5: "10", 7: "10", 9: "100",
			}),
			expected: nil,
		},
		{
			name: "no window across midnight",
			points: append(
				hours(19, map[int]string{20: "100", 21: "100", 22: "100", 23: "5"}),
				hours(20, map[int]string{0: "5", 1: "5"})...,
			),
			expected: nil,
		},
		{
			name: "days in chronological order",
			points: append(
				hours(20, map[int]string{5: "1", 6: "1", 7: "100"}),
				hours(19, map[int]string{8: "50", 9: "50", 10: "100"})...,
			),
			expected: []time.Time{at(19, 8), at(20, 5)},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, starts(Lowest(tt.points)))
		})
	}
}

func TestLowestCheaperStopHour(t *testing.T) {
	// 05:00 at 30 pairs with a cheaper 06:00, 06:00 itself has no cheap successor.
	periods := Lowest(hours(19, map[int]string{5: "30", 6: "5", 7: "100"}))
	require.Len(t, periods, 1)
	assert.Equal(t, at(19, 5), periods[0].Start)
	assert.Equal(t, at(19, 6), periods[0].Stop)
	assert.Equal(t, "30", periods[0].StartPrice.String())
	assert.Equal(t, "5", periods[0].StopPrice.String())
}

func TestLowestWorkedExampleDetails(t *testing.T) {
	periods := Lowest(hours(19, map[int]string{
		4: "50", 5: "10", 6: "12", 7: "60", 8: "11", 9: "58",
	}))
	require.Len(t, periods, 1)
	p := periods[0]
	assert.Equal(t, "2025-10-19", p.Day.String())
	assert.Equal(t, at(19, 6), p.Stop)
	start, stop := p.Strings()
	assert.Equal(t, "05:00 19 Oct", start)
	assert.Equal(t, "06:00 19 Oct", stop)
}

func TestThreshold(t *testing.T) {
	th, ok := Threshold(hours(19, map[int]string{0: "500", 4: "50", 9: "60"}))
	assert.True(t, ok)
	assert.Equal(t, "42", th.String())

	_, ok = Threshold(hours(19, map[int]string{3: "50"}))
	assert.False(t, ok)
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "23:00 01 Jan", FormatTime(time.Date(2026, time.January, 1, 23, 0, 0, 0, time.UTC)))
}

func randomSeries(r *rand.Rand) []price.Point {
	var points []price.Point
	days := 1 + r.Intn(3)
	for d := 0; d < days; d++ {
		for h := 0; h < 24; h++ {
			if r.Intn(8) == 0 {
				continue // gap
			}
			cents := int64(r.Intn(6000) - 500)
			if r.Intn(3) == 0 {
				cents = cents / 100 * 100 // ties
			}
			points = append(points, price.Point{
				Time:  at(19+d, h),
				Price: decimal.New(cents, -2),
			})
		}
	}
	r.Shuffle(len(points), func(i, j int) { points[i], points[j] = points[j], points[i] })
	return points
}

func TestLowestProperties(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		points := randomSeries(r)
		periods := Lowest(points)

		byTime := make(map[int64]decimal.Decimal)
		for _, p := range points {
			byTime[p.Time.Unix()] = p.Price
		}
		perDay := make(map[price.Day][]Period)
		for _, p := range periods {
			perDay[p.Day] = append(perDay[p.Day], p)
		}

		for day, ps := range perDay {
			assert.LessOrEqual(t, len(ps), MaxPerDay)

			var dayPoints []price.Point
			for _, p := range points {
				if price.DayOf(p.Time) == day {
					dayPoints = append(dayPoints, p)
				}
			}
			threshold, ok := Threshold(dayPoints)
			require.True(t, ok)

			for i, p := range ps {
				assert.Equal(t, day, price.DayOf(p.Start))
				assert.Equal(t, day, price.DayOf(p.Stop))
				assert.GreaterOrEqual(t, p.Start.Hour(), BlackoutEndHour)
				assert.Equal(t, p.Start.Add(time.Hour), p.Stop)

				startPrice, ok := byTime[p.Start.Unix()]
				require.True(t, ok)
				stopPrice, ok := byTime[p.Stop.Unix()]
				require.True(t, ok)
				assert.True(t, startPrice.Equal(p.StartPrice))
				assert.True(t, stopPrice.Equal(p.StopPrice))
				assert.True(t, startPrice.LessThan(threshold))
				assert.True(t, stopPrice.LessThan(threshold))
				assert.True(t, stopPrice.LessThanOrEqual(startPrice.Mul(decimal.RequireFromString("1.2"))))

				for _, o := range ps[i+1:] {
					d := p.Start.Sub(o.Start)
					if d < 0 {
						d = -d
					}
					assert.True(t, d >= 4*time.Hour, "%s and %s too close", p.Start, o.Start)
				}
			}
		}

		assert.Equal(t, periods, Lowest(points), "idempotent")

		shuffled := make([]price.Point, len(points))
		copy(shuffled, points)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, periods, Lowest(shuffled), "order independent")
	}
}

func TestLowestDoesNotMutateInput(t *testing.T) {
	points := hours(19, map[int]string{5: "10", 6: "12", 7: "60", 4: "50"})
	before := make([]price.Point, len(points))
	copy(before, points)
	Lowest(points)
	assert.Equal(t, before, points)
}
