/*
This file contains a price feed backed by an HTTP price endpoint.

The endpoint is queried with ?denom=<denom> and must answer with
{"denom": "...", "price": "<integer, 8 decimals>", "timestamp": <unix seconds>}.
The last good observation is cached for MaxAge so a burst of pool operations
does not hammer the upstream.
*/

package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/wamm/internal/logger"
	"github.com/elys-network/wamm/internal/types"
)

var ErrInvalidPriceData = errors.New("invalid price data received")

const (
	MAX_RETRIES     = 3
	TIMEOUT_SECONDS = 10
	DEFAULT_MAX_AGE = 30 * time.Second
)

type priceResponse struct {
	Denom     string `json:"denom"`
	Price     string `json:"price"`
	Timestamp int64  `json:"timestamp"`
}

// HTTPFeed fetches one denom's price from an HTTP endpoint.
type HTTPFeed struct {
	BaseURL string
	Denom   string
	MaxAge  time.Duration

	client  *http.Client
	logger  zerolog.Logger
	backoff time.Duration
	now     func() time.Time

	mu     sync.Mutex
	cached *types.PriceData
}

func NewHTTPFeed(baseURL, denom string) *HTTPFeed {
	return &HTTPFeed{
		BaseURL: baseURL,
		Denom:   denom,
		MaxAge:  DEFAULT_MAX_AGE,
		client:  &http.Client{Timeout: TIMEOUT_SECONDS * time.Second},
		logger:  logger.GetForComponent("price_feed").With().Str("denom", denom).Logger(),
		backoff: time.Second,
		now:     time.Now,
	}
}

// LatestPrice returns the cached price when fresh, otherwise fetches a new one.
func (f *HTTPFeed) LatestPrice(ctx context.Context) (sdkmath.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached != nil && f.now().Sub(f.cached.Timestamp) <= f.MaxAge {
		return f.cached.Price, nil
	}

	observation, err := f.fetch(ctx)
	if err != nil {
		return sdkmath.Int{}, err
	}
	f.cached = observation
	return observation.Price, nil
}

func (f *HTTPFeed) fetch(ctx context.Context) (*types.PriceData, error) {
	endpoint := fmt.Sprintf("%s?denom=%s", f.BaseURL, url.QueryEscape(f.Denom))

	var lastErr error
	for attempt := 1; attempt <= MAX_RETRIES; attempt++ {
		f.logger.Debug().Int("attempt", attempt).Str("url", endpoint).Msg("Requesting price")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build price request: %w", err)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed on attempt %d: %w", attempt, err)
			f.logger.Warn().Err(err).Int("attempt", attempt).Msg("Price request failed, will retry if attempts remain")
		} else {
			observation, err := f.processResponse(resp)
			if err == nil {
				return observation, nil
			}
			lastErr = err
			f.logger.Warn().Err(err).Int("attempt", attempt).Msg("Price response rejected, will retry if attempts remain")
		}

		if attempt < MAX_RETRIES {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * f.backoff):
			}
		}
	}

	f.logger.Error().Err(lastErr).Int("maxRetries", MAX_RETRIES).Msg("All price request attempts failed")
	return nil, fmt.Errorf("failed to fetch price for %s after %d attempts: %w", f.Denom, MAX_RETRIES, lastErr)
}

func (f *HTTPFeed) processResponse(resp *http.Response) (*types.PriceData, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price endpoint returned status %d for %s", resp.StatusCode, f.Denom)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body for %s: %w", f.Denom, err)
	}

	var payload priceResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse price response for %s: %w", f.Denom, err)
	}
	if payload.Denom != f.Denom {
		return nil, fmt.Errorf("%w: expected denom %s, got %s", ErrInvalidPriceData, f.Denom, payload.Denom)
	}

	price, ok := sdkmath.NewIntFromString(payload.Price)
	if !ok || !price.IsPositive() {
		return nil, fmt.Errorf("%w: price %q for %s", ErrInvalidPriceData, payload.Price, f.Denom)
	}

	observed := f.now()
	if payload.Timestamp > 0 {
		observed = time.Unix(payload.Timestamp, 0)
	}

	return &types.PriceData{Timestamp: observed, Price: price}, nil
}
