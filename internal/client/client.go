package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"StockSignal/internal/domain/models"
	xhttp "StockSignal/pkg/http"
	applogger "StockSignal/pkg/logger"
)

// APIError is a structured failure returned by the server.
type APIError struct {
	Status int    `json:"-"`
	Code   string `json:"error"`
	Detail string `json:"detail"`
	Raw    string `json:"raw,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// BacktestQuery are the simulation parameters sent to /backtest.
type BacktestQuery struct {
	Period   string
	Interval string
	Fast     int
	Slow     int
	FeeBps   float64
}

// Option configures Client.
type Option func(*Client)

// WithRetries sets how many times a transport failure is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the pause between retries.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

// WithLogger sets the client logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithHTTPOptions passes options to the underlying HTTP client.
func WithHTTPOptions(opts ...xhttp.ClientOption) Option {
	return func(c *Client) {
		c.httpOpts = append(c.httpOpts, opts...)
	}
}

// Client calls the StockSignal API.
type Client struct {
	http     *xhttp.Client
	httpOpts []xhttp.ClientOption
	retries  int
	backoff  time.Duration
	logger   *applogger.Logger
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		retries: 1,
		backoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = applogger.Nop()
	}
	c.http = xhttp.NewClient(baseURL, c.httpOpts...)
	return c
}

// Signal fetches the latest prediction for symbol.
func (c *Client) Signal(ctx context.Context, symbol string) (models.SignalResult, error) {
	var out models.SignalResult
	err := c.get(ctx, "/signal/"+url.PathEscape(symbol), nil, &out)
	return out, err
}

// OHLC fetches the price series for symbol.
func (c *Client) OHLC(ctx context.Context, symbol, period, interval string) ([]models.TimeSeriesPoint, error) {
	q := url.Values{}
	q.Set("period", period)
	q.Set("interval", interval)

	var out []models.TimeSeriesPoint
	if err := c.get(ctx, "/ohlc/"+url.PathEscape(symbol), q, &out); err != nil {
		return nil, err
	}
	if err := models.ValidateSeries(out); err != nil {
		return nil, &APIError{Code: "parse_error", Detail: err.Error()}
	}
	return out, nil
}

// Backtest runs the moving-average crossover simulation for symbol.
func (c *Client) Backtest(ctx context.Context, symbol string, p BacktestQuery) (models.BacktestResult, error) {
	q := url.Values{}
	q.Set("period", p.Period)
	q.Set("interval", p.Interval)
	q.Set("fast", strconv.Itoa(p.Fast))
	q.Set("slow", strconv.Itoa(p.Slow))
	q.Set("fee_bps", strconv.FormatFloat(p.FeeBps, 'f', -1, 64))

	var out models.BacktestResult
	if err := c.get(ctx, "/backtest/"+url.PathEscape(symbol), q, &out); err != nil {
		return out, err
	}
	if out.Error != "" {
		return out, &APIError{Code: "backtest_error", Detail: out.Error}
	}
	return out, nil
}

// get retries transport failures only: a response from the server, whatever
// its status, is final, and so is a cancelled context.
func (c *Client) get(ctx context.Context, path string, q url.Values, dest interface{}) error {
	req := &xhttp.RequestOptions{Path: path, QueryParams: q}

	var err error
	for attempt := 0; ; attempt++ {
		err = c.http.SendAndParse(ctx, req, dest)
		if err == nil || !retryable(ctx, err) || attempt >= c.retries {
			break
		}
		c.logger.Debug("retrying request",
			applogger.String("path", path),
			applogger.Int("attempt", attempt+1),
			applogger.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff):
		}
	}
	return asAPIError(err)
}

// retryable reports whether err happened before any response was received.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

func asAPIError(err error) error {
	var se *xhttp.StatusError
	if !errors.As(err, &se) {
		return err
	}
	apiErr := &APIError{Status: se.StatusCode}
	if jerr := json.Unmarshal(se.Body, apiErr); jerr != nil || apiErr.Code == "" {
		apiErr.Code = "http_" + strconv.Itoa(se.StatusCode)
		apiErr.Detail = string(se.Body)
	}
	return apiErr
}
