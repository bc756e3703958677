package leadapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"travelops/internal/adapters/observability"
	"travelops/internal/domain"
)

// Client talks to the CRM lead API. It implements domain.LeadService,
// domain.EmailSender and domain.WhatsAppSender: lead email and
// WhatsApp delivery run through the CRM so sends land in the lead's
// communication log.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("CRM base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// flexInt tolerates traveller counts arriving as numbers or quoted
// strings, depending on the CRM version.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexInt(v)
	return nil
}

// leadRecord is the CRM wire shape.
type leadRecord struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Mobile      string  `json:"mobile"`
	Adults      flexInt `json:"no_adults"`
	Children    flexInt `json:"no_children"`
	Infants     flexInt `json:"no_infants"`
	Destination string  `json:"destination"`
	TravelDate  string  `json:"travel_date"`
	Status      string  `json:"status"`
}

func (rec leadRecord) toLead() domain.Lead {
	l := domain.Lead{
		ID:          rec.ID,
		ClientName:  rec.Name,
		Email:       strings.TrimSpace(rec.Email),
		Phone:       strings.TrimSpace(rec.Mobile),
		Destination: rec.Destination,
		Status:      domain.LeadStatus(rec.Status),
	}
	l.Adults = int(rec.Adults)
	l.Children = int(rec.Children)
	l.Infants = int(rec.Infants)
	if rec.TravelDate != "" {
		for _, layout := range []string{"2006-01-02", time.RFC3339} {
			if t, err := time.Parse(layout, rec.TravelDate); err == nil {
				l.TravelDate = &t
				break
			}
		}
	}
	return l
}

func (c *Client) GetLead(ctx context.Context, id int64) (domain.Lead, error) {
	var env struct {
		Data *leadRecord `json:"data"`
		leadRecord
	}
	url := fmt.Sprintf("%s/leads/%d", c.base, id)
	if err := c.do(ctx, http.MethodGet, url, nil, &env); err != nil {
		return domain.Lead{}, fmt.Errorf("lead %d: %w", id, err)
	}
	rec := env.leadRecord
	if env.Data != nil {
		rec = *env.Data
	}
	if rec.ID == 0 {
		rec.ID = id
	}
	return rec.toLead(), nil
}

func (c *Client) UpdateStatus(ctx context.Context, id int64, status domain.LeadStatus) error {
	url := fmt.Sprintf("%s/leads/%d/status", c.base, id)
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, http.MethodPut, url, body, nil); err != nil {
		return fmt.Errorf("update lead %d status: %w", id, err)
	}
	return nil
}

func (c *Client) NotifyConfirmation(ctx context.Context, id int64, n domain.ConfirmationNotice) error {
	url := fmt.Sprintf("%s/leads/%d/confirm-itinerary", c.base, id)
	body := map[string]any{
		"option_number":  n.OptionNumber,
		"total_amount":   n.TotalAmount,
		"itinerary_name": n.ItineraryName,
	}
	if err := c.do(ctx, http.MethodPost, url, body, nil); err != nil {
		return fmt.Errorf("confirm notify lead %d: %w", id, err)
	}
	return nil
}

func (c *Client) PaymentSummary(ctx context.Context, id int64) (domain.PaymentSummary, error) {
	var out domain.PaymentSummary
	url := fmt.Sprintf("%s/leads/%d/payments/summary", c.base, id)
	if err := c.do(ctx, http.MethodGet, url, nil, &out); err != nil {
		return domain.PaymentSummary{}, fmt.Errorf("payment summary lead %d: %w", id, err)
	}
	return out, nil
}

// sendOutcome is the CRM's delivery acknowledgement shape, shared by
// the email and WhatsApp endpoints.
type sendOutcome struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	RecordID string `json:"record_id"`
}

func (c *Client) SendEmail(ctx context.Context, leadID int64, to, subject, htmlBody string) (domain.DispatchResult, error) {
	var out sendOutcome
	url := fmt.Sprintf("%s/leads/%d/send-email", c.base, leadID)
	body := map[string]string{"to": to, "subject": subject, "body": htmlBody}
	if err := c.do(ctx, http.MethodPost, url, body, &out); err != nil {
		return domain.DispatchResult{}, fmt.Errorf("send email lead %d: %w", leadID, err)
	}
	return domain.DispatchResult{
		Channel:  domain.ChannelEmail,
		Success:  out.Success,
		Message:  out.Message,
		RecordID: out.RecordID,
	}, nil
}

func (c *Client) SendWhatsApp(ctx context.Context, leadID int64, text string) (domain.DispatchResult, error) {
	var out sendOutcome
	url := fmt.Sprintf("%s/whatsapp/send", c.base)
	body := map[string]any{"lead_id": leadID, "message": text}
	if err := c.do(ctx, http.MethodPost, url, body, &out); err != nil {
		return domain.DispatchResult{}, fmt.Errorf("send whatsapp lead %d: %w", leadID, err)
	}
	return domain.DispatchResult{
		Channel:  domain.ChannelWhatsApp,
		Success:  out.Success,
		Message:  out.Message,
		RecordID: out.RecordID,
	}, nil
}

// do performs one JSON request with client-side rate limiting and
// retries on 429 and transient 5xx, honoring Retry-After.
func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = b
	}

	endpoint := endpointLabel(url)
	var lastErr error
	for i := 0; i < 4; i++ {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return err
		}
		if c.key != "" {
			req.Header.Set("Authorization", "Bearer "+c.key)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
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
		observability.ObserveExternal("crm", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			if out == nil {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return nil
			}
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

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

// endpointLabel strips IDs out of the path so metric cardinality stays
// bounded.
func endpointLabel(url string) string {
	idx := strings.Index(url, "://")
	path := url
	if idx >= 0 {
		if slash := strings.Index(url[idx+3:], "/"); slash >= 0 {
			path = url[idx+3+slash:]
		}
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if _, err := strconv.Atoi(p); err == nil && p != "" {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
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
