package price

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Point is the spot price for the hour starting at Time. Price is in EUR/MWh.
type Point struct {
	Time  time.Time       `json:"time"`
	Price decimal.Decimal `json:"price"`
}

// Day is a calendar date in whatever location the timestamps were created in.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Day) Before(o Day) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	t, err := time.Parse("2006-01-02", string(b))
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", b, err)
	}
	*d = DayOf(t)
	return nil
}

type DayGroup struct {
	Day    Day
	Points []Point
}

// Sorted returns a chronologically sorted copy of points.
func Sorted(points []Point) []Point {
	s := make([]Point, len(points))
	copy(s, points)
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Time.Before(s[j].Time)
	})
	return s
}

// GroupByDay buckets points by calendar date. Days and the points within each day
// are returned in chronological order.
func GroupByDay(points []Point) []DayGroup {
	index := make(map[Day]int)
	var groups []DayGroup
	for _, p := range Sorted(points) {
		d := DayOf(p.Time)
		i, ok := index[d]
		if !ok {
			i = len(groups)
			index[d] = i
			groups = append(groups, DayGroup{Day: d})
		}
		groups[i].Points = append(groups[i].Points, p)
	}
	// Sorted by instant, which can disagree with calendar order for mixed locations.
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Day.Before(groups[j].Day)
	})
	return groups
}

// Dedupe drops every point whose timestamp was already seen.
func Dedupe(points []Point) []Point {
	seen := make(map[int64]bool, len(points))
	out := make([]Point, 0, len(points))
	for _, p := range points {
		key := p.Time.Unix()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// Current returns the point whose hour contains t.
func Current(points []Point, t time.Time) (Point, bool) {
	var cur Point
	found := false
	for _, p := range points {
		if p.Time.After(t) || !t.Before(p.Time.Add(time.Hour)) {
			continue
		}
		if !found || p.Time.After(cur.Time) {
			cur = p
			found = true
		}
	}
	return cur, found
}

type Summary struct {
	Count int
	Min   decimal.Decimal
	Max   decimal.Decimal
	Mean  float64
}

func Summarize(points []Point) Summary {
	if len(points) == 0 {
		return Summary{}
	}
	s := Summary{
		Count: len(points),
		Min:   points[0].Price,
		Max:   points[0].Price,
	}
	values := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Price.LessThan(s.Min) {
			s.Min = p.Price
		}
		if p.Price.GreaterThan(s.Max) {
			s.Max = p.Price
		}
		values = append(values, p.Price.InexactFloat64())
	}
	s.Mean = stat.Mean(values, nil)
	return s
}
