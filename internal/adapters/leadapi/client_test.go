package leadapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"travelops/internal/adapters/leadapi"
	"travelops/internal/domain"
)

func TestClient_GetLead_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": 42, "name": "Asha Verma", "email": "asha@example.com ",
				"mobile": "9871000000", "no_adults": "2", "no_children": 1,
				"travel_date": "2026-10-15", "status": "new",
			})
		}
	}))
	defer ts.Close()

	cl, err := leadapi.New(ts.URL, "test-key", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	lead, err := cl.GetLead(ctx, 42)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if lead.ID != 42 || lead.ClientName != "Asha Verma" {
		t.Fatalf("unexpected lead: %+v", lead)
	}
	if lead.Email != "asha@example.com" {
		t.Fatalf("email not trimmed: %q", lead.Email)
	}
	if lead.Adults != 2 || lead.Children != 1 {
		t.Fatalf("string counts not coerced: %+v", lead)
	}
	if lead.TravelDate == nil || lead.TravelDate.Format("2006-01-02") != "2026-10-15" {
		t.Fatalf("travel date: %v", lead.TravelDate)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected retries, got %d calls", hits)
	}
}

func TestClient_GetLead_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, _ := leadapi.New(ts.URL, "test-key", 100)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := cl.GetLead(ctx, 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_SendEmail_CarriesUpstreamMessage(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["to"] == "" || req["subject"] == "" {
			w.WriteHeader(400)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true, "message": "queued for delivery", "record_id": "rec-77",
		})
	}))
	defer ts.Close()

	cl, _ := leadapi.New(ts.URL, "test-key", 100)
	res, err := cl.SendEmail(context.Background(), 42, "asha@example.com", "Travel Quotation", "<html></html>")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !res.Success || res.Message != "queued for delivery" || res.RecordID != "rec-77" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Channel != domain.ChannelEmail {
		t.Fatalf("channel: %v", res.Channel)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth header: %q", gotAuth)
	}
}

func TestClient_UpdateStatus(t *testing.T) {
	var gotMethod, gotPath, gotStatus string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotStatus = req["status"]
		w.WriteHeader(204)
	}))
	defer ts.Close()

	cl, _ := leadapi.New(ts.URL, "", 100)
	if err := cl.UpdateStatus(context.Background(), 42, domain.StatusProposal); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/leads/42/status" || gotStatus != "proposal" {
		t.Fatalf("got %s %s status=%q", gotMethod, gotPath, gotStatus)
	}
}
