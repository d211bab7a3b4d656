package yahoo

import (
	"fmt"
	"time"

	"github.com/wonny/sectorpulse/internal/contracts"
)

// chartResponse is the /v8/finance/chart payload.
// Quote arrays carry nulls for minutes without trades, hence the pointers.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *chartError) Error() string {
	return fmt.Sprintf("yahoo api error %s: %s", e.Code, e.Description)
}

// series flattens the columnar payload into bars (UTC timestamps, unsorted).
// A result without timestamps is an empty series, not an error.
func (r chartResponse) series() (contracts.Series, error) {
	if r.Chart.Error != nil {
		return nil, r.Chart.Error
	}
	if len(r.Chart.Result) == 0 {
		return contracts.Series{}, nil
	}

	result := r.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return contracts.Series{}, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: %d timestamps without quotes", len(result.Timestamp))
	}

	q := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(q.Open) != n || len(q.High) != n || len(q.Low) != n || len(q.Close) != n {
		return nil, fmt.Errorf("yahoo: malformed quote arrays for %d timestamps", n)
	}

	bars := make(contracts.Series, 0, n)
	for i, ts := range result.Timestamp {
		if q.Open[i] == nil || q.High[i] == nil || q.Low[i] == nil || q.Close[i] == nil {
			continue
		}
		bar := contracts.Bar{
			Time:  time.Unix(ts, 0).UTC(),
			Open:  *q.Open[i],
			High:  *q.High[i],
			Low:   *q.Low[i],
			Close: *q.Close[i],
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = *q.Volume[i]
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
