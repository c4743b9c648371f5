package app

import (
	"sync"
	"time"

	"github.com/nergy-se/dpils/pkg/period"
	"github.com/nergy-se/dpils/pkg/price"
)

type Snapshot struct {
	Points      []price.Point
	Periods     []period.Period
	RefreshedAt time.Time
}

type Cache struct {
	data *Snapshot
	sync.RWMutex
}

func (c *Cache) Get() *Snapshot {
	c.RLock()
	defer c.RUnlock()
	return c.data
}

func (c *Cache) Set(d *Snapshot) {
	c.Lock()
	c.data = d
	c.Unlock()
}
