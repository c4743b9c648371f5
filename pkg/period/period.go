package period

import (
	"sort"
	"time"

	"github.com/nergy-se/dpils/pkg/price"
	"github.com/shopspring/decimal"
)

const (
	// Hours before this are never recommended.
	BlackoutEndHour = 4
	MaxPerDay       = 3
	MinSpacing      = 4 * time.Hour
	Length          = time.Hour

	timeLayout = "15:04 02 Jan"
)

var (
	// a price must be below this share of the day's max price.
	thresholdFactor = decimal.RequireFromString("0.7")
	// the stop hour may cost at most this much relative to the start hour.
	pairTolerance = decimal.RequireFromString("1.2")
)

// Period is a recommended one hour heating window.
type Period struct {
	Day        price.Day       `json:"day"`
	Start      time.Time       `json:"start"`
	Stop       time.Time       `json:"stop"`
	StartPrice decimal.Decimal `json:"startPrice"`
	StopPrice  decimal.Decimal `json:"stopPrice"`
}

func FormatTime(t time.Time) string {
	return t.Format(timeLayout)
}

// Strings returns start and stop formatted for display.
func (p Period) Strings() (string, string) {
	return FormatTime(p.Start), FormatTime(p.Stop)
}

// Threshold returns 70% of the highest price at or after the blackout window.
// ok is false when the day has no such price.
func Threshold(points []price.Point) (decimal.Decimal, bool) {
	var max decimal.Decimal
	found := false
	for _, p := range points {
		if p.Time.Hour() < BlackoutEndHour {
			continue
		}
		if !found || p.Price.GreaterThan(max) {
			max = p.Price
			found = true
		}
	}
	if !found {
		return decimal.Zero, false
	}
	return max.Mul(thresholdFactor), true
}

// Lowest picks up to MaxPerDay cheap one hour periods for every calendar day in
// points. Cheapest hours are tried first and accepted greedily when both the hour
// and the following one are below the day's threshold, the following one costs
// at most 20% more, and the start is at least MinSpacing away from every period
// already accepted that day. Days are returned in chronological order.
func Lowest(points []price.Point) []Period {
	var periods []Period
	for _, group := range price.GroupByDay(points) {
		periods = append(periods, lowestForDay(group)...)
	}
	return periods
}

func lowestForDay(group price.DayGroup) []Period {
	candidates := make([]price.Point, 0, len(group.Points))
	for _, p := range group.Points {
		if p.Time.Hour() >= BlackoutEndHour {
			candidates = append(candidates, p)
		}
	}
	threshold, ok := Threshold(candidates)
	if !ok {
		return nil
	}

	// group.Points is chronological so equal prices keep earliest first.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Price.LessThan(candidates[j].Price)
	})

	byTime := make(map[int64]decimal.Decimal, len(candidates))
	for _, p := range candidates {
		if _, exists := byTime[p.Time.Unix()]; !exists {
			byTime[p.Time.Unix()] = p.Price
		}
	}

	var selected []Period
	for _, p := range candidates {
		stop := p.Time.Add(Length)
		stopPrice, ok := byTime[stop.Unix()]
		if !ok {
			continue
		}
		if !p.Price.LessThan(threshold) || !stopPrice.LessThan(threshold) {
			continue
		}
		if stopPrice.GreaterThan(p.Price.Mul(pairTolerance)) {
			continue
		}
		if !spaced(selected, p.Time) {
			continue
		}
		selected = append(selected, Period{
			Day:        group.Day,
			Start:      p.Time,
			Stop:       stop,
			StartPrice: p.Price,
			StopPrice:  stopPrice,
		})
		if len(selected) == MaxPerDay {
			break
		}
	}
	return selected
}

func spaced(selected []Period, start time.Time) bool {
	for _, s := range selected {
		d := start.Sub(s.Start)
		if d < 0 {
			d = -d
		}
		if d < MinSpacing {
			return false
		}
	}
	return true
}
