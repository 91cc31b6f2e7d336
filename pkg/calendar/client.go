package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// Holiday is one entry of the public holiday feed.
type Holiday struct {
	Date        string `json:"date"`
	LocalName   string `json:"localName"`
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
}

// Fetch results reported to a FetchRecorder.
const (
	FetchHit   = "hit"
	FetchMiss  = "miss"
	FetchError = "error"
)

// FetchRecorder counts holiday lookups by result.
type FetchRecorder interface {
	RecordCalendarFetch(result string)
}

type noopRecorder struct{}

func (noopRecorder) RecordCalendarFetch(string) {}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithCache sets the response cache. Defaults to NoopCache.
func WithCache(c Cache) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.cache = c
		}
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(log *slog.Logger) ClientOption {
	return func(cl *Client) {
		if log != nil {
			cl.log = log
		}
	}
}

// WithFetchRecorder registers a sink for fetch counters.
func WithFetchRecorder(r FetchRecorder) ClientOption {
	return func(cl *Client) {
		if r != nil {
			cl.recorder = r
		}
	}
}

// Client reads public holidays from a nager.at compatible API.
// Concurrent lookups of the same year and country share one upstream call.
type Client struct {
	baseURL  string
	ttl      time.Duration
	timeout  time.Duration
	http     *http.Client
	cache    Cache
	log      *slog.Logger
	recorder FetchRecorder
	group    singleflight.Group
}

// NewClient creates a holiday client from cfg.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		ttl:      cfg.CacheTTL,
		timeout:  timeout,
		http:     &http.Client{Timeout: timeout},
		cache:    NoopCache{},
		log:      logger.Noop(),
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Holidays returns the public holidays of country in year.
func (c *Client) Holidays(ctx context.Context, year int, country string) ([]Holiday, error) {
	if year < 1975 || year > 2100 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	country = strings.ToUpper(strings.TrimSpace(country))
	if !isCountryCode(country) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCountry, country)
	}

	key := fmt.Sprintf("holidays:%d:%s", year, country)

	if body, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.WarnContext(ctx, "holiday cache read failed", logger.Error(err))
	} else if ok {
		if holidays, err := decodeHolidays(body); err == nil {
			c.recorder.RecordCalendarFetch(FetchHit)
			return holidays, nil
		}
	}

	// The shared fetch is detached from the caller that started it.
	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		body, err := c.fetch(fctx, year, country)
		if err != nil {
			return nil, err
		}
		holidays, err := decodeHolidays(body)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(fctx, key, body, c.ttl); err != nil {
			c.log.WarnContext(fctx, "holiday cache write failed", logger.Error(err))
		}
		return holidays, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		c.recorder.RecordCalendarFetch(FetchError)
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		c.recorder.RecordCalendarFetch(FetchError)
		return nil, res.Err
	}

	c.recorder.RecordCalendarFetch(FetchMiss)
	return res.Val.([]Holiday), nil
}

func (c *Client) fetch(ctx context.Context, year int, country string) ([]byte, error) {
	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", c.baseURL, year, country)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}
	defer resp.Body.Close()

	c.log.DebugContext(ctx, "holiday source responded",
		slog.Int("status", resp.StatusCode), logger.Duration(time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCountry, country)
	case resp.StatusCode == http.StatusNoContent:
		return []byte("[]"), nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}
	return body, nil
}

func decodeHolidays(body []byte) ([]Holiday, error) {
	var holidays []Holiday
	if err := json.Unmarshal(body, &holidays); err != nil {
		return nil, errors.Join(ErrInvalidResponse, err)
	}
	return holidays, nil
}

func isCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
