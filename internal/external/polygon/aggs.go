package polygon

import (
	"fmt"
	"time"

	"github.com/wonny/sectorpulse/internal/contracts"
)

// aggBar is one aggregate; T is the window start in ms since epoch
type aggBar struct {
	T int64   `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

type aggsResponse struct {
	Ticker       string   `json:"ticker"`
	Status       string   `json:"status"`
	ResultsCount int      `json:"resultsCount"`
	Results      []aggBar `json:"results"`
	Error        string   `json:"error"`
	Message      string   `json:"message"`
}

// err reports an error carried in a 200 response body
func (r aggsResponse) err() error {
	switch r.Status {
	case "", "OK", "DELAYED":
		return nil
	}
	msg := r.Error
	if msg == "" {
		msg = r.Message
	}
	return fmt.Errorf("polygon status %s: %s", r.Status, msg)
}

func (r aggsResponse) series() contracts.Series {
	bars := make(contracts.Series, 0, len(r.Results))
	for _, a := range r.Results {
		bars = append(bars, contracts.Bar{
			Time:   time.UnixMilli(a.T).UTC(),
			Open:   a.O,
			High:   a.H,
			Low:    a.L,
			Close:  a.C,
			Volume: a.V,
		})
	}
	return bars
}
