package recorder

import (
	"time"

	"github.com/nergy-se/dpils/pkg/price"
)

// Recorder archives fetched prices. Selected periods are never stored.
type Recorder interface {
	RecordPrices(points []price.Point) error
	// Prices returns archived points with from <= time < to in chronological order.
	Prices(from, to time.Time) ([]price.Point, error)
	Close() error
}

// NoopRecorder is used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordPrices(_ []price.Point) error { return nil }
func (n *NoopRecorder) Prices(_, _ time.Time) ([]price.Point, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
