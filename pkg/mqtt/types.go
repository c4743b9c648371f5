package mqtt

import (
	"github.com/nergy-se/dpils/pkg/period"
)

type PeriodMessage struct {
	Day        string `json:"day"`
	Start      string `json:"start"`
	Stop       string `json:"stop"`
	StartPrice string `json:"startPrice"`
	StopPrice  string `json:"stopPrice"`
}

func NewPeriodsMessage(periods []period.Period) []PeriodMessage {
	msg := make([]PeriodMessage, 0, len(periods))
	for _, p := range periods {
		start, stop := p.Strings()
		msg = append(msg, PeriodMessage{
			Day:        p.Day.String(),
			Start:      start,
			Stop:       stop,
			StartPrice: p.StartPrice.String(),
			StopPrice:  p.StopPrice.String(),
		})
	}
	return msg
}
