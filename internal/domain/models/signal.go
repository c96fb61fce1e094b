package models

// Signal values produced by the signal worker.
const (
	SignalBuy  = "BUY"
	SignalSell = "SELL"
	SignalHold = "HOLD"
)

type Features struct {
	Ret  float64 `json:"ret"`
	MA5  float64 `json:"ma5"`
	MA20 float64 `json:"ma20"`
	RSI  float64 `json:"rsi"`
}

// SignalResult is the signal worker payload.
type SignalResult struct {
	Symbol          string   `json:"symbol"`
	LastClose       float64  `json:"last_close"`
	PredictedReturn float64  `json:"predicted_return"`
	Signal          string   `json:"signal"`
	Features        Features `json:"features"`
}

type BacktestMetrics struct {
	CAGR        float64 `json:"cagr"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Sharpe      float64 `json:"sharpe"`
	TradeCount  int     `json:"trade_count"`
	LastEquity  float64 `json:"last_equity,omitempty"`
}

type EquityPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// BacktestResult is the simulation worker payload. A worker that found no data
// reports it through Error instead of metrics.
type BacktestResult struct {
	Symbol   string          `json:"symbol"`
	Period   string          `json:"period,omitempty"`
	Interval string          `json:"interval,omitempty"`
	Fast     int             `json:"fast"`
	Slow     int             `json:"slow"`
	FeeBps   float64         `json:"fee_bps"`
	Metrics  BacktestMetrics `json:"metrics"`
	Equity   []EquityPoint   `json:"equity,omitempty"`
	Error    string          `json:"error,omitempty"`
}
