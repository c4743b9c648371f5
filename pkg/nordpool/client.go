package nordpool

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/maypok86/otter/v2"
	"github.com/nergy-se/dpils/pkg/price"
	"github.com/sirupsen/logrus"
)

const DefaultURL = "https://nordpool.didnt.work/"

var httpClient = &http.Client{
	Timeout: time.Second * 30,
}

// Client fetches and parses the price page.
type Client struct {
	url        string
	httpClient *http.Client
	cache      *otter.Cache[string, []price.Point]
	location   *time.Location
	now        func() time.Time
	attempts   uint
	delay      time.Duration
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithCacheTTL keeps a parsed page for ttl. A ttl of 0 disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(cl *Client) {
		if ttl <= 0 {
			cl.cache = nil
			return
		}
		cl.cache = otter.Must(&otter.Options[string, []price.Point]{
			MaximumSize:      16,
			ExpiryCalculator: otter.ExpiryWriting[string, []price.Point](ttl),
		})
	}
}

func WithLocation(loc *time.Location) Option {
	return func(cl *Client) {
		cl.location = loc
	}
}

func WithClock(now func() time.Time) Option {
	return func(cl *Client) {
		cl.now = now
	}
}

func WithRetry(attempts uint, delay time.Duration) Option {
	return func(cl *Client) {
		cl.attempts = attempts
		cl.delay = delay
	}
}

func New(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpClient: httpClient,
		location:   time.Local,
		now:        time.Now,
		attempts:   3,
		delay:      time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) URL() string {
	return c.url
}

// Prices returns the hourly prices currently published, deduplicated by timestamp.
func (c *Client) Prices(ctx context.Context) ([]price.Point, error) {
	if c.cache != nil {
		if points, ok := c.cache.GetIfPresent(c.url); ok {
			logrus.Debugf("using cached prices for %s", c.url)
			return points, nil
		}
	}

	points, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(c.url, points)
	}
	return points, nil
}

func (c *Client) fetch(ctx context.Context) ([]price.Point, error) {
	var points []price.Point
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("User-Agent", "dpils/1.0")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				return fmt.Errorf("error fetching prices StatusCode: %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("error fetching prices StatusCode: %d", resp.StatusCode))
			}

			points, err = Parse(resp.Body, c.now().In(c.location), c.location)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logrus.Warnf("retrying price fetch attempt %d: %s", n+1, err)
		}),
	)
	if err != nil {
		return nil, err
	}

	logrus.Debugf("fetched %d prices from %s", len(points), c.url)
	return points, nil
}
