package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/nergy-se/dpils/pkg/nordpool"
	"github.com/nergy-se/dpils/pkg/period"
	"github.com/nergy-se/dpils/pkg/price"
	"github.com/sirupsen/logrus"
)

func main() {
	url := flag.String("url", nordpool.DefaultURL, "price page url")
	tz := flag.String("tz", "Local", "timezone of the price page")
	logLevel := flag.String("loglevel", "warn", "logrus log level")
	flag.Parse()

	lvl, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error setting logrus loglevel:", err)
		os.Exit(2)
	}
	logrus.SetLevel(lvl)

	loc := time.Local
	if *tz != "Local" {
		loc, err = time.LoadLocation(*tz)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error loading timezone:", err)
			os.Exit(2)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := nordpool.New(*url, nordpool.WithLocation(loc))
	points, err := client.Prices(ctx)
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}

	printPrices(os.Stdout, points)
}

func printPrices(w io.Writer, points []price.Point) {
	periods := period.Lowest(points)
	inPeriod := make(map[int64]bool)
	for _, p := range periods {
		inPeriod[p.Start.Unix()] = true
		inPeriod[p.Stop.Unix()] = true
	}

	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow)
	header := color.New(color.FgCyan, color.Bold)

	for _, g := range price.GroupByDay(points) {
		header.Fprintf(w, "%s\n", g.Day)
		threshold, hasThreshold := period.Threshold(g.Points)
		for _, p := range g.Points {
			line := fmt.Sprintf("  %s  %10s EUR", p.Time.Format("15:04"), p.Price.StringFixed(3))
			switch {
			case inPeriod[p.Time.Unix()]:
				green.Fprintln(w, line)
			case hasThreshold && p.Time.Hour() >= period.BlackoutEndHour && p.Price.LessThan(threshold):
				yellow.Fprintln(w, line)
			default:
				fmt.Fprintln(w, line)
			}
		}

		s := price.Summarize(g.Points)
		fmt.Fprintf(w, "  min %s  max %s  mean %.3f", s.Min.StringFixed(3), s.Max.StringFixed(3), s.Mean)
		if hasThreshold {
			fmt.Fprintf(w, "  threshold %s", threshold.StringFixed(3))
		}
		fmt.Fprintln(w)
	}

	header.Fprintln(w, "Recommended Low Price Periods")
	if len(periods) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, p := range periods {
		start, stop := p.Strings()
		green.Fprintf(w, "  Start: %s, Stop: %s\n", start, stop)
	}
}
