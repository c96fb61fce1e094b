package models

import "fmt"

// TimeSeriesPoint is one OHLC bar as emitted by the ohlc worker.
// Time is "YYYY-MM-DD" for daily bars.
type TimeSeriesPoint struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume *int64  `json:"volume,omitempty"`
}

// DerivedPoint is one moving-average sample.
type DerivedPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// ValidateSeries checks that timestamps are strictly increasing.
// Timestamps of the same layout compare correctly as strings.
func ValidateSeries(series []TimeSeriesPoint) error {
	for i := 1; i < len(series); i++ {
		if series[i].Time <= series[i-1].Time {
			return fmt.Errorf("series not strictly increasing at %d: %q after %q", i, series[i].Time, series[i-1].Time)
		}
	}
	return nil
}
