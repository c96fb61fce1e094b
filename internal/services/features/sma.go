package features

import (
	"github.com/shopspring/decimal"

	"StockSignal/internal/domain/models"
)

// SMAPrecision is the number of decimal places kept in SMA values.
const SMAPrecision = 4

// SMA computes the simple moving average of closing prices over window bars.
// The result has max(0, n-window+1) points; the point at input index i
// (i >= window-1) is the mean of closes [i-window+1, i], aligned to bar i's time.
// It makes a single pass with a running sum and does not modify series.
func SMA(series []models.TimeSeriesPoint, window int) []models.DerivedPoint {
	if window < 1 || len(series) < window {
		return []models.DerivedPoint{}
	}
	out := make([]models.DerivedPoint, 0, len(series)-window+1)
	w := float64(window)
	sum := 0.0
	for i, p := range series {
		sum += p.Close
		if i >= window {
			sum -= series[i-window].Close
		}
		if i >= window-1 {
			out = append(out, models.DerivedPoint{
				Time:  p.Time,
				Value: round(sum / w),
			})
		}
	}
	return out
}

// SMAMany computes SMA for each window.
func SMAMany(series []models.TimeSeriesPoint, windows ...int) map[int][]models.DerivedPoint {
	out := make(map[int][]models.DerivedPoint, len(windows))
	for _, w := range windows {
		out[w] = SMA(series, w)
	}
	return out
}

func round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(SMAPrecision).InexactFloat64()
}
