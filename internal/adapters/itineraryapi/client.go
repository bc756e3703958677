package itineraryapi

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"travelops/internal/adapters/observability"
	"travelops/internal/domain"
)

// Client reads itinerary metadata and the per-option final-price
// overlay from the itinerary service. Both are read-only here.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("itinerary base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 15 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type metaRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Destination string `json:"destination"`
	Duration    int    `json:"duration"`
	Image       string `json:"image_url"`
}

func (c *Client) Metadata(ctx context.Context, itineraryID int64) (domain.ItineraryMeta, error) {
	var rec metaRecord
	url := fmt.Sprintf("%s/itineraries/%d", c.base, itineraryID)
	if err := c.get(ctx, url, "/itineraries/{id}", &rec); err != nil {
		return domain.ItineraryMeta{}, fmt.Errorf("itinerary %d metadata: %w", itineraryID, err)
	}
	if rec.ID == 0 {
		rec.ID = itineraryID
	}
	return domain.ItineraryMeta{
		ID:          rec.ID,
		Name:        rec.Name,
		Destination: rec.Destination,
		Duration:    rec.Duration,
		Image:       rec.Image,
	}, nil
}

// wireNumber tolerates prices arriving as numbers, quoted strings, or
// garbage; ok is false for anything non-numeric.
type wireNumber struct {
	val float64
	ok  bool
}

func (n *wireNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	n.val, n.ok = v, true
	return nil
}

// PriceOverlay fetches the per-option final prices. Entries with a
// non-numeric or negative final price are dropped at decode so a
// half-filled pricing sheet never poisons resolution.
func (c *Client) PriceOverlay(ctx context.Context, itineraryID int64) (domain.PriceOverlay, error) {
	var raw struct {
		Options map[string]struct {
			FinalPrice  wireNumber `json:"final_price"`
			DiscountPct wireNumber `json:"discount_pct"`
		} `json:"options"`
	}
	url := fmt.Sprintf("%s/itineraries/%d/pricing", c.base, itineraryID)
	if err := c.get(ctx, url, "/itineraries/{id}/pricing", &raw); err != nil {
		return nil, fmt.Errorf("itinerary %d pricing: %w", itineraryID, err)
	}

	overlay := domain.PriceOverlay{}
	for key, entry := range raw.Options {
		opt, err := strconv.Atoi(key)
		if err != nil || opt <= 0 {
			continue
		}
		if !entry.FinalPrice.ok || entry.FinalPrice.val < 0 {
			continue
		}
		oe := domain.OverlayEntry{FinalPrice: entry.FinalPrice.val}
		if pct := entry.DiscountPct; pct.ok && pct.val > 0 && pct.val < 100 {
			v := pct.val
			oe.DiscountPct = &v
		}
		overlay[opt] = oe
	}
	return overlay, nil
}

// get performs one JSON GET with client-side rate limiting and retries
// on 429 and transient 5xx, honoring Retry-After.
func (c *Client) get(ctx context.Context, url, endpoint string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "travelops/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("itinerary", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNotFound:
			resp.Body.Close()
			return domain.ErrNotFound

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles each attempt (200ms, 400ms, 800ms...) with up to
// +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
