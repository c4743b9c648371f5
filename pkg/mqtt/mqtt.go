package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	mqttv2 "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/nergy-se/dpils/pkg/period"
	"github.com/sirupsen/logrus"
)

// Broker is an embedded MQTT broker that publishes the recommended periods.
type Broker struct {
	server *mqttv2.Server
	topic  string
}

// Start listens on address and stops the broker when ctx is done.
func Start(ctx context.Context, wg *sync.WaitGroup, address, topic string) (*Broker, error) {
	server := mqttv2.New(&mqttv2.Options{
		InlineClient: true,
	})

	// Allow all connections.
	_ = server.AddHook(new(auth.AllowHook), nil)

	tcp := listeners.NewTCP(listeners.Config{ID: "t1", Address: address})
	err := server.AddListener(tcp)
	if err != nil {
		return nil, fmt.Errorf("error adding mqtt listener: %w", err)
	}

	err = server.Serve()
	if err != nil {
		return nil, fmt.Errorf("error starting mqtt server: %w", err)
	}
	logrus.Infof("mqtt broker listening on %s", address)

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		server.Close()
	}()
	return &Broker{server: server, topic: topic}, nil
}

// PublishPeriods publishes periods as a retained message so new subscribers get
// the latest recommendation immediately.
func (b *Broker) PublishPeriods(periods []period.Period) error {
	payload, err := json.Marshal(NewPeriodsMessage(periods))
	if err != nil {
		return err
	}
	return b.server.Publish(b.topic, payload, true, 0)
}
