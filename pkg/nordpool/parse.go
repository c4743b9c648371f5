package nordpool

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/nergy-se/dpils/pkg/price"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const (
	dateLayout    = "2. Jan 2006"
	priceDecimals = 3
)

// Parse extracts hourly prices from the price page. Every <span class="help"> holds
// a date like "19. Oct" and is followed by a <tbody> with one <tr data-hours> row
// per hour. Rows that cannot be parsed are logged and skipped.
func Parse(r io.Reader, now time.Time, loc *time.Location) ([]price.Point, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing price page: %w", err)
	}

	elements := flatten(doc, nil)
	var points []price.Point
	for i, n := range elements {
		if n.Data != "span" || !hasClass(n, "help") {
			continue
		}
		label := strings.TrimSpace(text(n))
		logrus.Debugf("parsing prices for %s", label)

		day, err := parseDay(label, now, loc)
		if err != nil {
			logrus.Warnf("error parsing date %q: %s", label, err)
			continue
		}

		tbody := next(elements[i+1:], func(n *html.Node) bool { return n.Data == "tbody" })
		if tbody == nil {
			logrus.Warnf("no price table found for %s", label)
			continue
		}

		for _, row := range flatten(tbody, nil) {
			if row.Data != "tr" || !hasAttr(row, "data-hours") {
				continue
			}
			p, ok := parseRow(row, day)
			if ok {
				points = append(points, p)
			}
		}
	}
	return price.Dedupe(points), nil
}

func parseRow(row *html.Node, day time.Time) (price.Point, bool) {
	elements := flatten(row, nil)
	th := next(elements, func(n *html.Node) bool { return n.Data == "th" })
	cell := next(elements, func(n *html.Node) bool { return n.Data == "td" && hasClass(n, "price") })
	if th == nil || cell == nil {
		return price.Point{}, false
	}

	hourRange := strings.TrimSpace(text(th))
	hour, err := parseHour(hourRange)
	if err != nil {
		logrus.Warnf("error parsing hour %q: %s", hourRange, err)
		return price.Point{}, false
	}

	// the cell text includes the nested extra-decimals span.
	priceText := text(cell)
	p, err := parsePrice(priceText)
	if err != nil {
		logrus.Warnf("error parsing price %q: %s", strings.TrimSpace(priceText), err)
		return price.Point{}, false
	}

	return price.Point{
		Time:  time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location()),
		Price: p,
	}, true
}

// parseDay parses labels like "19. Oct". The page has no year so the year of now
// is used, moving dates more than six months away from now into the adjacent year.
func parseDay(label string, now time.Time, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, fmt.Sprintf("%s %d", label, now.Year()), loc)
	if err != nil {
		return time.Time{}, err
	}
	switch {
	case d.Before(now.AddDate(0, -6, 0)):
		d = d.AddDate(1, 0, 0)
	case d.After(now.AddDate(0, 6, 0)):
		d = d.AddDate(-1, 0, 0)
	}
	return d, nil
}

// parseHour returns the start hour of ranges like "00 - 01".
func parseHour(s string) (int, error) {
	start, _, _ := strings.Cut(s, "-")
	start, _, _ = strings.Cut(strings.TrimSpace(start), ":")
	hour, err := strconv.Atoi(start)
	if err != nil {
		return 0, err
	}
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("hour %d out of range", hour)
	}
	return hour, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(priceDecimals), nil
}

// flatten lists the element nodes below n in document order.
func flatten(n *html.Node, out []*html.Node) []*html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
		out = flatten(c, out)
	}
	return out
}

func next(elements []*html.Node, match func(*html.Node) bool) *html.Node {
	for _, n := range elements {
		if match(n) {
			return n
		}
	}
	return nil
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
