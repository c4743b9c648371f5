package web

import (
	"bytes"
	"html/template"
	"time"

	"github.com/nergy-se/dpils/pkg/period"
	"github.com/nergy-se/dpils/pkg/price"
	"github.com/shopspring/decimal"
)

const (
	tableTimeLayout   = "2006-01-02 15:04:05"
	pickerLabelLayout = "02 Jan 15:04"
	pickerValueLayout = "2006-01-02T15:04"
	graphTimeLayout   = "2006-01-02 15:04"
)

type tableRow struct {
	Datetime string
	Price    string
}

type graphData struct {
	X          []string
	Y          []float64
	LastX      string
	LastY      float64
	Annotation string
}

type pickerOption struct {
	Value string
	Label string
}

type periodView struct {
	Start string
	Stop  string
}

type daySummary struct {
	Day       string
	Count     int
	Min       string
	Max       string
	Mean      string
	Threshold string
}

func renderTable(points []price.Point) (template.HTML, error) {
	rows := make([]tableRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, tableRow{
			Datetime: p.Time.Format(tableTimeLayout),
			Price:    p.Price.StringFixed(3),
		})
	}
	return execute("table.html.tmpl", rows)
}

func renderGraph(points []price.Point) (template.HTML, error) {
	g := graphData{
		X: make([]string, 0, len(points)),
		Y: make([]float64, 0, len(points)),
	}
	for _, p := range points {
		g.X = append(g.X, p.Time.Format(graphTimeLayout))
		g.Y = append(g.Y, p.Price.InexactFloat64())
	}
	if len(points) > 0 {
		last := points[len(points)-1]
		g.LastX = last.Time.Format(graphTimeLayout)
		g.LastY = last.Price.InexactFloat64()
		g.Annotation = last.Price.String() + " EUR"
	}
	return execute("graph.html.tmpl", g)
}

// pickerOptions lists every distinct hour once, in chronological order.
func pickerOptions(points []price.Point) []pickerOption {
	seen := make(map[string]bool)
	var opts []pickerOption
	for _, p := range points {
		label := p.Time.Format(pickerLabelLayout)
		if seen[label] {
			continue
		}
		seen[label] = true
		opts = append(opts, pickerOption{Value: p.Time.Format(pickerValueLayout), Label: label})
	}
	return opts
}

func periodViews(periods []period.Period) []periodView {
	views := make([]periodView, 0, len(periods))
	for _, p := range periods {
		start, stop := p.Strings()
		views = append(views, periodView{Start: start, Stop: stop})
	}
	return views
}

func daySummaries(points []price.Point) []daySummary {
	var out []daySummary
	for _, g := range price.GroupByDay(points) {
		s := price.Summarize(g.Points)
		d := daySummary{
			Day:       g.Day.String(),
			Count:     s.Count,
			Min:       s.Min.StringFixed(3),
			Max:       s.Max.StringFixed(3),
			Mean:      decimal.NewFromFloat(s.Mean).StringFixed(3),
			Threshold: "-",
		}
		if th, ok := period.Threshold(g.Points); ok {
			d.Threshold = th.StringFixed(3)
		}
		out = append(out, d)
	}
	return out
}

func lastUpdated(t time.Time) string {
	return t.Format("02 Jan 15:04")
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := views.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
