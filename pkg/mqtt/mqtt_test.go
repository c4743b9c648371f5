package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	mqttv2 "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/nergy-se/dpils/pkg/period"
	"github.com/nergy-se/dpils/pkg/price"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPeriods() []period.Period {
	start := time.Date(2025, time.October, 19, 5, 0, 0, 0, time.UTC)
	return []period.Period{{
		Day:        price.DayOf(start),
		Start:      start,
		Stop:       start.Add(time.Hour),
		StartPrice: decimal.RequireFromString("10"),
		StopPrice:  decimal.RequireFromString("12.5"),
	}}
}

func TestNewPeriodsMessage(t *testing.T) {
	b, err := json.Marshal(NewPeriodsMessage(testPeriods()))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"day":"2025-10-19","start":"05:00 19 Oct","stop":"06:00 19 Oct","startPrice":"10","stopPrice":"12.5"}]`, string(b))

	b, err = json.Marshal(NewPeriodsMessage(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestPublishPeriods(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	defer func() {
		cancel()
		wg.Wait()
	}()

	broker, err := Start(ctx, wg, "127.0.0.1:0", "dpils/periods")
	require.NoError(t, err)

	received := make(chan []byte, 1)
	err = broker.server.Subscribe("dpils/#", 1, func(cl *mqttv2.Client, sub packets.Subscription, pk packets.Packet) {
		received <- pk.Payload
	})
	require.NoError(t, err)

	require.NoError(t, broker.PublishPeriods(testPeriods()))

	select {
	case payload := <-received:
		var msg []PeriodMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		require.Len(t, msg, 1)
		assert.Equal(t, "05:00 19 Oct", msg[0].Start)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}
