package api

import (
	"context"
	"net/http"

	models "StockSignal/internal/domain/models"
	"StockSignal/internal/service/worker"
	xhttp "StockSignal/pkg/http"
	xlogger "StockSignal/pkg/logger"

	"github.com/labstack/echo/v4"
)

func init() {
	if err := xhttp.RegisterStringValidation("symbol", worker.ValidSymbol); err != nil {
		panic(err)
	}
	if err := xhttp.RegisterStringValidation("token", worker.ValidToken); err != nil {
		panic(err)
	}
}

// Computations is the usecase the facade delegates to.
type Computations interface {
	Signal(ctx context.Context, symbol string) models.InvocationOutcome
	OHLC(ctx context.Context, symbol, period, interval string) models.InvocationOutcome
	Backtest(ctx context.Context, p worker.BacktestParams) models.InvocationOutcome
}

// ComputationsEchoHandler exposes one GET route per worker kind.
type ComputationsEchoHandler struct {
	logger *xlogger.Logger
	comp   Computations
}

func NewComputationsEchoHandler(logger *xlogger.Logger, comp Computations) *ComputationsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ComputationsEchoHandler{logger: logger, comp: comp}
}

func (h *ComputationsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/signal/:symbol", h.Signal)
	e.GET("/ohlc/:symbol", h.OHLC)
	e.GET("/backtest/:symbol", h.Backtest)
}

func (h *ComputationsEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]bool{"ok": true})
}

func (h *ComputationsEchoHandler) Signal(c echo.Context) error {
	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationFailedResponse(c, verr)
	}
	return h.respond(c, h.comp.Signal(c.Request().Context(), req.Symbol))
}

func (h *ComputationsEchoHandler) OHLC(c echo.Context) error {
	req := &models.OHLCRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationFailedResponse(c, verr)
	}
	return h.respond(c, h.comp.OHLC(c.Request().Context(), req.Symbol, req.Period, req.Interval))
}

func (h *ComputationsEchoHandler) Backtest(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationFailedResponse(c, verr)
	}
	return h.respond(c, h.comp.Backtest(c.Request().Context(), worker.BacktestParams{
		Symbol:   req.Symbol,
		Period:   req.Period,
		Interval: req.Interval,
		Fast:     req.Fast,
		Slow:     req.Slow,
		FeeBps:   req.FeeBps,
	}))
}

// respond writes the worker payload verbatim or the failure body.
func (h *ComputationsEchoHandler) respond(c echo.Context, out models.InvocationOutcome) error {
	if out.OK() {
		return xhttp.RawJSONResponse(c, out.Payload)
	}
	f := out.Failure
	status := failureStatus(f.Kind)
	if status >= http.StatusInternalServerError {
		h.logger.Error("computation failed",
			xlogger.String("route", c.Path()),
			xlogger.String("error", string(f.Kind)),
			xlogger.String("detail", f.Detail),
		)
	}
	return xhttp.ErrorResponse(c, status, xhttp.ErrorBody{
		Error:  wireErrorName(f.Kind),
		Detail: f.Detail,
		Raw:    f.Raw,
	})
}

func failureStatus(k models.FailureKind) int {
	switch k {
	case models.FailureValidation:
		return http.StatusBadRequest
	case models.FailureCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// wireErrorName keeps the historical "python_error" name for worker failures.
func wireErrorName(k models.FailureKind) string {
	if k == models.FailureWorker {
		return "python_error"
	}
	return string(k)
}
