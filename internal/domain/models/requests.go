package models

// Requests for the computation HTTP endpoints. Symbol is bound from the path.

type SignalRequest struct {
	Symbol string `param:"symbol" validate:"required,symbol"`
}

type OHLCRequest struct {
	Symbol   string `param:"symbol" validate:"required,symbol"`
	Period   string `query:"period" default:"2y" validate:"token"`
	Interval string `query:"interval" default:"1d" validate:"token"`
}

type BacktestRequest struct {
	Symbol   string  `param:"symbol" validate:"required,symbol"`
	Period   string  `query:"period" default:"2y" validate:"token"`
	Interval string  `query:"interval" default:"1d" validate:"token"`
	Fast     int     `query:"fast" default:"5" validate:"gte=1,lte=1000"`
	Slow     int     `query:"slow" default:"20" validate:"gte=1,lte=1000"`
	FeeBps   float64 `query:"fee_bps" default:"5" validate:"gte=0,lte=10000"`
}
