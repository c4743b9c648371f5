package config

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type CliConfig struct {
	SourceURL string `default:"https://nordpool.didnt.work/"`
	Timezone  string `default:"Local"`
	CacheTTL  string `default:"1m"`

	Host string `default:"0.0.0.0"`
	Port string `default:"10000"`

	// RefreshSchedule is a standard 5 field cron expression.
	RefreshSchedule string `default:"*/15 * * * *"`

	SQLitePath  string
	MQTTAddress string
	MQTTTopic   string `default:"dpils/periods"`

	LogLevel string `default:"info"`

	mutex sync.RWMutex
}

// LoadEnv applies PORT from the environment, the variable most hosting platforms set.
func (c *CliConfig) LoadEnv() {
	if p := os.Getenv("PORT"); p != "" {
		c.mutex.Lock()
		c.Port = p
		c.mutex.Unlock()
	}
}

func (c *CliConfig) ListenAddr() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *CliConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("error loading timezone: %w", err)
	}
	return loc, nil
}

func (c *CliConfig) TTL() (time.Duration, error) {
	if c.CacheTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("error parsing CacheTTL: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("CacheTTL must not be negative")
	}
	return d, nil
}

func (c *CliConfig) Schedule() (cron.Schedule, error) {
	s, err := cron.ParseStandard(c.RefreshSchedule)
	if err != nil {
		return nil, fmt.Errorf("error parsing RefreshSchedule: %w", err)
	}
	return s, nil
}

func (c *CliConfig) Validate() error {
	if c.SourceURL == "" {
		return fmt.Errorf("SourceURL is required")
	}
	if c.Port == "" {
		return fmt.Errorf("Port is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.TTL(); err != nil {
		return err
	}
	if _, err := c.Schedule(); err != nil {
		return err
	}
	return nil
}
