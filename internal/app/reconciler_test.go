package app_test

import (
	"context"
	"testing"

	"travelops/internal/app"
	"travelops/internal/domain"
)

func TestReconcileReplacesGroupAndCarriesConfirmation(t *testing.T) {
	store := newFakeStore()
	store.leads[10] = []domain.Proposal{
		{ID: "old-1", ItineraryID: 7, OptionNumber: 1, Price: 100},
		{ID: "old-2", ItineraryID: 7, OptionNumber: 2, Price: 200, Confirmed: true},
	}
	store.itins[7] = []domain.Proposal{
		{ID: "cur-1", ItineraryID: 7, OptionNumber: 1, Price: 150},
		{ID: "cur-2", ItineraryID: 7, OptionNumber: 2, Price: 250},
		{ID: "cur-3", ItineraryID: 7, OptionNumber: 3, Price: 350},
	}

	r := app.NewReconciler(store, newFakeItineraries())
	got, err := r.Reconcile(context.Background(), 10)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected current set of 3, got %d", len(got))
	}
	for _, p := range got {
		want := p.OptionNumber == 2
		if p.Confirmed != want {
			t.Fatalf("option %d confirmed=%v, want %v", p.OptionNumber, p.Confirmed, want)
		}
	}
	if got[0].ID != "cur-1" {
		t.Fatalf("expected fresh entries, got %+v", got[0])
	}
}

func TestReconcileKeepsStaleGroupOnFetchFailure(t *testing.T) {
	store := newFakeStore()
	store.leads[10] = []domain.Proposal{
		{ID: "a", ItineraryID: 7, OptionNumber: 1, Price: 100},
		{ID: "b", ItineraryID: 8, OptionNumber: 1, Price: 300},
	}
	store.itins[7] = []domain.Proposal{{ID: "a2", ItineraryID: 7, OptionNumber: 1, Price: 120}}
	store.itinErr[8] = errUpstream

	r := app.NewReconciler(store, newFakeItineraries())
	got, err := r.Reconcile(context.Background(), 10)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	byID := map[string]domain.Proposal{}
	for _, p := range got {
		byID[p.ID] = p
	}
	if _, ok := byID["a2"]; !ok {
		t.Fatalf("itinerary 7 not replaced: %+v", got)
	}
	if _, ok := byID["b"]; !ok {
		t.Fatalf("itinerary 8 stale entry lost: %+v", got)
	}
}

func TestReconcileManualEntriesPassThrough(t *testing.T) {
	store := newFakeStore()
	store.leads[10] = []domain.Proposal{
		{ID: "manual", ItineraryID: 0, OptionNumber: 1, Price: 9999},
	}

	r := app.NewReconciler(store, newFakeItineraries())
	got, err := r.Reconcile(context.Background(), 10)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(got) != 1 || got[0].ID != "manual" || got[0].Price != 9999 {
		t.Fatalf("manual entry mangled: %+v", got)
	}
}

func TestReconcileAssignsIDsToBlankEntries(t *testing.T) {
	store := newFakeStore()
	store.leads[10] = []domain.Proposal{{ID: "x", ItineraryID: 7, OptionNumber: 1}}
	store.itins[7] = []domain.Proposal{{ItineraryID: 7, OptionNumber: 1, Price: 500}}

	r := app.NewReconciler(store, newFakeItineraries())
	got, err := r.Reconcile(context.Background(), 10)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(got) != 1 || got[0].ID == "" {
		t.Fatalf("expected generated id, got %+v", got)
	}
}

// Phase 1 must be committed before any overlay result lands, so a
// renderable list exists even while every overlay fetch fails.
func TestReconcileCommitsMergeBeforePriceUpgrade(t *testing.T) {
	store := newFakeStore()
	store.leads[10] = []domain.Proposal{{ID: "a", ItineraryID: 7, OptionNumber: 1, Price: 100}}
	store.itins[7] = []domain.Proposal{{ID: "a2", ItineraryID: 7, OptionNumber: 1, Price: 100}}

	itins := newFakeItineraries()
	itins.overlays[7] = domain.PriceOverlay{1: {FinalPrice: 48904}}

	r := app.NewReconciler(store, itins)
	got, err := r.Reconcile(context.Background(), 10)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(store.saved) != 2 {
		t.Fatalf("expected two-phase persist, got %d saves", len(store.saved))
	}
	if store.saved[0][0].Price != 100 {
		t.Fatalf("phase-1 save already carries overlay price: %+v", store.saved[0])
	}
	if store.saved[1][0].Price != 48904 || got[0].Pricing.FinalClientPrice != 48904 {
		t.Fatalf("phase-2 upgrade missing: %+v", store.saved[1])
	}
}

// A reconcile overtaken mid-flight must not persist either phase, or
// its stale merged snapshot would revert prices the overtaking run
// already upgraded from the overlay.
func TestReconcileSupersededRunPersistsNothing(t *testing.T) {
	store := newFakeStore()
	store.leads[10] = []domain.Proposal{{ID: "a", ItineraryID: 7, OptionNumber: 1, Price: 100}}
	store.itins[7] = []domain.Proposal{{ID: "a2", ItineraryID: 7, OptionNumber: 1, Price: 100}}

	itins := newFakeItineraries()
	itins.overlays[7] = domain.PriceOverlay{1: {FinalPrice: 48904}}

	r := app.NewReconciler(store, itins)

	// The hook fires while the first reconcile is mid-merge, after it
	// has read its snapshot: a second reconcile runs to completion and
	// persists the upgraded price before the first one commits.
	store.itinHook = func(int64) {
		store.itinHook = nil
		if _, err := r.Reconcile(context.Background(), 10); err != nil {
			t.Fatalf("overtaking reconcile: %v", err)
		}
	}
	if _, err := r.Reconcile(context.Background(), 10); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	// only the overtaking run's two phases may have been persisted
	if len(store.saved) != 2 {
		t.Fatalf("expected 2 saves from the overtaking run only, got %d", len(store.saved))
	}
	final, err := store.LeadProposals(context.Background(), 10)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if final[0].Price != 48904 {
		t.Fatalf("upgraded price reverted to %v, want 48904", final[0].Price)
	}
}

// One itinerary's overlay failing must not block price upgrades for the
// others, and the failed one keeps its last known prices.
func TestReconcilePartialOverlayFailure(t *testing.T) {
	store := newFakeStore()
	store.leads[10] = []domain.Proposal{
		{ID: "a", ItineraryID: 7, OptionNumber: 1, Price: 100, Pricing: domain.Pricing{FinalClientPrice: 100}},
		{ID: "b", ItineraryID: 8, OptionNumber: 1, Price: 300, Pricing: domain.Pricing{FinalClientPrice: 300}},
	}
	store.itins[7] = []domain.Proposal{{ID: "a", ItineraryID: 7, OptionNumber: 1, Price: 100, Pricing: domain.Pricing{FinalClientPrice: 100}}}
	store.itins[8] = []domain.Proposal{{ID: "b", ItineraryID: 8, OptionNumber: 1, Price: 300, Pricing: domain.Pricing{FinalClientPrice: 300}}}

	itins := newFakeItineraries()
	itins.overlays[7] = domain.PriceOverlay{1: {FinalPrice: 120}}
	itins.overlayErr[8] = errUpstream

	r := app.NewReconciler(store, itins)
	got, err := r.Reconcile(context.Background(), 10)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	for _, p := range got {
		switch p.ItineraryID {
		case 7:
			if p.Pricing.FinalClientPrice != 120 {
				t.Fatalf("itinerary 7 not upgraded: %+v", p)
			}
		case 8:
			if p.Pricing.FinalClientPrice != 300 {
				t.Fatalf("itinerary 8 should keep known price: %+v", p)
			}
		}
	}
}

func TestRefreshPricesOnlyResolves(t *testing.T) {
	store := newFakeStore()
	store.leads[10] = []domain.Proposal{{ID: "a", ItineraryID: 7, OptionNumber: 1, Price: 100}}
	// current option set differs; RefreshPrices must not merge it in
	store.itins[7] = []domain.Proposal{
		{ID: "x", ItineraryID: 7, OptionNumber: 1},
		{ID: "y", ItineraryID: 7, OptionNumber: 2},
	}

	itins := newFakeItineraries()
	itins.overlays[7] = domain.PriceOverlay{1: {FinalPrice: 500}}

	r := app.NewReconciler(store, itins)
	got, err := r.RefreshPrices(context.Background(), 10)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("refresh merged the option set: %+v", got)
	}
	if got[0].Pricing.FinalClientPrice != 500 {
		t.Fatalf("price not refreshed: %+v", got[0])
	}
}
