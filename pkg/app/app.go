package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nergy-se/dpils/pkg/api/v1/config"
	"github.com/nergy-se/dpils/pkg/mqtt"
	"github.com/nergy-se/dpils/pkg/nordpool"
	"github.com/nergy-se/dpils/pkg/period"
	"github.com/nergy-se/dpils/pkg/recorder"
	"github.com/nergy-se/dpils/pkg/web"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type App struct {
	wg       *sync.WaitGroup
	config   *config.CliConfig
	schedule cron.Schedule
	location *time.Location

	client   *nordpool.Client
	recorder recorder.Recorder
	broker   *mqtt.Broker
	web      *web.Server
	latest   *Cache
}

func New(config *config.CliConfig) *App {
	return &App{
		wg:     &sync.WaitGroup{},
		config: config,
		latest: &Cache{},
	}
}

func (a *App) Start(ctx context.Context) error {
	var err error
	a.schedule, err = a.config.Schedule()
	if err != nil {
		return err
	}
	a.location, err = a.config.Location()
	if err != nil {
		return err
	}
	ttl, err := a.config.TTL()
	if err != nil {
		return err
	}

	a.client = nordpool.New(a.config.SourceURL,
		nordpool.WithCacheTTL(ttl),
		nordpool.WithLocation(a.location),
	)

	a.recorder = recorder.NewNoopRecorder()
	if a.config.SQLitePath != "" {
		rec, err := recorder.NewSQLiteRecorder(a.config.SQLitePath, a.location)
		if err != nil {
			logrus.Errorf("error opening price archive, continuing without it: %s", err)
		} else {
			a.recorder = rec
		}
	}

	if a.config.MQTTAddress != "" {
		a.broker, err = mqtt.Start(ctx, a.wg, a.config.MQTTAddress, a.config.MQTTTopic)
		if err != nil {
			a.recorder.Close()
			return fmt.Errorf("error starting mqtt broker: %w", err)
		}
	}

	a.web = web.New(a.client, a.recorder, a.location)
	err = a.web.Start(ctx, a.wg, a.config.ListenAddr())
	if err != nil {
		a.recorder.Close()
		return err
	}

	a.wg.Add(1)
	go a.refreshLoop(ctx)
	return nil
}

func (a *App) Wait() {
	a.wg.Wait()
}

// Addr returns the address of the web server.
func (a *App) Addr() string {
	if a.web == nil {
		return ""
	}
	return a.web.Addr()
}

// Latest returns the result of the last successful refresh, nil before the first one.
func (a *App) Latest() *Snapshot {
	return a.latest.Get()
}

func (a *App) refreshLoop(ctx context.Context) {
	defer a.wg.Done()
	defer a.recorder.Close()

	delay := nextDelay(a.schedule, time.Now())
	timer := time.NewTimer(delay)
	defer timer.Stop()
	a.refresh(ctx)
	logrus.Debug("scheduling next refresh in ", delay)
	for {
		select {
		case <-timer.C:
			a.refresh(ctx)
			delay = nextDelay(a.schedule, time.Now())
			timer.Reset(delay)
			logrus.Debug("scheduling next refresh in ", delay)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) refresh(ctx context.Context) {
	points, err := a.client.Prices(ctx)
	if err != nil {
		logrus.Errorf("error fetching prices: %s", err)
		return
	}
	if len(points) == 0 {
		logrus.Warn("no prices found on price page")
	}

	err = a.recorder.RecordPrices(points)
	if err != nil {
		logrus.Errorf("error recording prices: %s", err)
	}

	periods := period.Lowest(points)
	previous := a.latest.Get()
	a.latest.Set(&Snapshot{
		Points:      points,
		Periods:     periods,
		RefreshedAt: time.Now(),
	})

	if previous == nil || !samePeriods(previous.Periods, periods) {
		for _, p := range periods {
			start, stop := p.Strings()
			logrus.Infof("low price period %s start: %s (%s) stop: %s (%s)", p.Day, start, p.StartPrice, stop, p.StopPrice)
		}
	}

	if a.broker != nil {
		err = a.broker.PublishPeriods(periods)
		if err != nil {
			logrus.Errorf("error publishing periods: %s", err)
		}
	}
}
