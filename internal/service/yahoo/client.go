// Package yahoo fetches daily closes and volumes from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"TrendPredictor/internal/domain/models"
	"TrendPredictor/internal/domain/repository"
	svcmetrics "TrendPredictor/internal/service/metrics"
	xhttp "TrendPredictor/pkg/http"
	"TrendPredictor/pkg/logger"
	"TrendPredictor/pkg/util"
)

const (
	SourceName     = "yahoo"
	DefaultBaseURL = "https://query1.finance.yahoo.com"
)

var errNoData = errors.New("no data")

// Client implements repository.SeriesSource over the v8 chart endpoint.
type Client struct {
	baseURL string
	client  *xhttp.Client
	l       *logger.Logger
}

var _ repository.SeriesSource = (*Client)(nil)

// Option configures Client.
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *xhttp.Client) Option { return func(c *Client) { c.client = hc } }

// NewClient builds a client with a 10s timeout.
func NewClient(l *logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		l:       l,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return SourceName }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				Currency             string `json:"currency"`
				Gmtoffset            int    `json:"gmtoffset"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchSeries returns up to days of daily closes for ticker with sentiment
// and promotion set to zero. Any failure is a *models.FetchError.
func (c *Client) FetchSeries(ctx context.Context, ticker string, days int) (models.Series, error) {
	started := time.Now()
	s, err := c.fetch(ctx, ticker, days)
	svcmetrics.ObserveFetch(SourceName, started, err)
	if err != nil {
		return models.Series{}, models.NewFetchError(SourceName, ticker, err)
	}
	c.l.Debug("yahoo series fetched",
		logger.String("ticker", ticker),
		logger.Int("rows", s.Len()),
		logger.Duration("duration_ms", time.Since(started)),
	)
	return s, nil
}

func (c *Client) fetch(ctx context.Context, ticker string, days int) (models.Series, error) {
	if ticker == "" {
		return models.Series{}, fmt.Errorf("empty ticker")
	}
	if days <= 0 {
		return models.Series{}, fmt.Errorf("invalid days %d", days)
	}

	var resp chartResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v8/finance/chart/" + url.PathEscape(ticker),
		QueryParams: map[string][]string{
			"interval":       {"1d"},
			"range":          {strconv.Itoa(days) + "d"},
			"includePrePost": {"false"},
		},
	}, &resp)
	if err != nil {
		return models.Series{}, err
	}
	return parseChart(&resp)
}

func parseChart(resp *chartResponse) (models.Series, error) {
	if resp.Chart.Error != nil {
		return models.Series{}, fmt.Errorf("yahoo api error: %s - %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return models.Series{}, errNoData
	}
	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return models.Series{}, errNoData
	}
	quote := result.Indicators.Quote[0]
	if len(quote.Close) != len(result.Timestamp) || len(quote.Volume) != len(result.Timestamp) {
		return models.Series{}, fmt.Errorf("misaligned quote arrays")
	}

	loc := exchangeLocation(result.Meta.ExchangeTimezoneName, result.Meta.Gmtoffset)
	obs := make([]models.Observation, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}
		obs = append(obs, models.Observation{
			Date:   util.Day(time.Unix(ts, 0).In(loc)),
			Price:  *quote.Close[i],
			Volume: *quote.Volume[i],
			Trend:  math.NaN(),
		})
	}
	if len(obs) == 0 {
		return models.Series{}, errNoData
	}
	return models.NormalizeSeries(obs), nil
}

// exchangeLocation resolves the exchange timezone so bars land on their trading day.
func exchangeLocation(name string, offset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if offset != 0 {
		return time.FixedZone("exchange", offset)
	}
	return time.UTC
}
