package app_test

import (
	"context"
	"reflect"
	"testing"

	"travelops/internal/app"
	"travelops/internal/domain"
)

func builderFixture() (*fakeStore, *fakeItineraries, *fakeLeads) {
	store := newFakeStore()
	store.leads[10] = []domain.Proposal{
		{ID: "p1", ItineraryID: 7, OptionNumber: 1, Pricing: domain.Pricing{FinalClientPrice: 18500}},
		{ID: "p2", ItineraryID: 7, OptionNumber: 2, Pricing: domain.Pricing{FinalClientPrice: 21000}},
	}
	store.events[7] = domain.OptionSet{ItineraryID: 7, Options: map[int][]domain.HotelLine{
		1: {{Day: 1, HotelID: 11, HotelName: "Sea View", Price: 4000}},
		2: {{Day: 1, HotelID: 12, HotelName: "City Inn", Price: 3000}},
	}}

	itins := newFakeItineraries()
	itins.meta[7] = domain.ItineraryMeta{ID: 7, Name: "Goa Getaway", Destination: "Goa", Duration: 4}

	leads := &fakeLeads{lead: domain.Lead{ID: 10, ClientName: "Asha Verma", Email: "asha@example.com"}}
	return store, itins, leads
}

func TestBuildShowsAllOptionsSorted(t *testing.T) {
	store, itins, leads := builderFixture()
	store.events[7].Options[10] = []domain.HotelLine{{Day: 1, HotelName: "Hilltop"}}

	b := app.NewQuotationBuilder(store, leads, itins)
	view, err := b.Build(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, want := view.VisibleOptions(), []string{"1", "2", "10"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("options = %v, want %v", got, want)
	}
	if view.Itinerary.Name != "Goa Getaway" {
		t.Fatalf("itinerary meta missing: %+v", view.Itinerary)
	}
}

func TestBuildRequestedOptionNarrows(t *testing.T) {
	store, itins, leads := builderFixture()
	b := app.NewQuotationBuilder(store, leads, itins)

	view, err := b.Build(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, want := view.VisibleOptions(), []string{"2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("options = %v, want %v", got, want)
	}

	// a requested option that does not exist falls back to all
	view, err = b.Build(context.Background(), 10, 9)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, want := view.VisibleOptions(), []string{"1", "2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("options = %v, want %v", got, want)
	}
}

func TestBuildTotalsComeFromTargetItinerary(t *testing.T) {
	store, itins, leads := builderFixture()

	// the lead also holds proposals for itinerary 8, whose option 1 is
	// confirmed and carries a different resolved price
	store.leads[10] = append(store.leads[10],
		domain.Proposal{ID: "p3", ItineraryID: 8, OptionNumber: 1, Confirmed: true,
			Pricing: domain.Pricing{FinalClientPrice: 48904}},
	)
	store.events[8] = domain.OptionSet{ItineraryID: 8, Options: map[int][]domain.HotelLine{
		1: {{Day: 1, HotelID: 21, HotelName: "Palace Stay", Price: 9000}},
	}}
	itins.meta[8] = domain.ItineraryMeta{ID: 8, Name: "Kerala Escape", Destination: "Kochi", Duration: 5}

	b := app.NewQuotationBuilder(store, leads, itins)
	view, err := b.Build(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if view.Itinerary.ID != 8 {
		t.Fatalf("target itinerary = %d, want confirmed 8", view.Itinerary.ID)
	}
	// itinerary 7 also has an option 1 priced 18500; it must not answer
	if got := view.Totals["1"].FinalClientPrice; got != 48904 {
		t.Fatalf("option 1 total = %v, want itinerary 8's 48904", got)
	}
}

func TestBuildConfirmedOptionWinsOverRequested(t *testing.T) {
	store, itins, leads := builderFixture()
	store.leads[10][0].Confirmed = true

	b := app.NewQuotationBuilder(store, leads, itins)
	view, err := b.Build(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, want := view.VisibleOptions(), []string{"1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("options = %v, want %v", got, want)
	}
}

func TestBuildTotalsPreferResolvedPrice(t *testing.T) {
	store, itins, leads := builderFixture()
	b := app.NewQuotationBuilder(store, leads, itins)

	view, err := b.Build(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// option 1: resolved 18500 wins over line sum 4000
	if view.Totals["1"].FinalClientPrice != 18500 {
		t.Fatalf("total 1 = %v", view.Totals["1"].FinalClientPrice)
	}
}

func TestBuildDedupesHotelLines(t *testing.T) {
	store, itins, leads := builderFixture()
	store.events[7] = domain.OptionSet{ItineraryID: 7, Options: map[int][]domain.HotelLine{
		1: {
			{Day: 2, HotelID: 11, HotelName: "Sea View"},
			{Day: 1, HotelName: "Budget Stay"},
			{Day: 2, HotelID: 11, HotelName: "Sea View (dup)"},
			{Day: 1, HotelName: "Budget Stay"},
			{Day: 3, HotelID: 11, HotelName: "Sea View"}, // same hotel, new day
		},
	}}

	b := app.NewQuotationBuilder(store, leads, itins)
	view, err := b.Build(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	lines := view.HotelOptions["1"]
	if len(lines) != 3 {
		t.Fatalf("expected 3 deduped lines, got %d: %+v", len(lines), lines)
	}
	for i := 1; i < len(lines); i++ {
		if lines[i].Day < lines[i-1].Day {
			t.Fatalf("lines not ordered by day: %+v", lines)
		}
	}
}

func TestBuildFallsBackToCachedItineraryFields(t *testing.T) {
	store, _, leads := builderFixture()
	store.leads[10][0].ItineraryName = "Cached Goa"
	store.leads[10][0].Destination = "Goa"
	store.leads[10][0].Duration = 3

	// itinerary service has no record
	b := app.NewQuotationBuilder(store, leads, newFakeItineraries())
	view, err := b.Build(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if view.Itinerary.Name != "Cached Goa" || view.Itinerary.Duration != 3 {
		t.Fatalf("fallback meta wrong: %+v", view.Itinerary)
	}
}

func TestBuildNoProposals(t *testing.T) {
	store := newFakeStore()
	leads := &fakeLeads{lead: domain.Lead{ID: 10}}

	b := app.NewQuotationBuilder(store, leads, newFakeItineraries())
	if _, err := b.Build(context.Background(), 10, 0); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuildDeterministic(t *testing.T) {
	store, itins, leads := builderFixture()
	b := app.NewQuotationBuilder(store, leads, itins)

	first, err := b.Build(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := b.Build(context.Background(), 10, 0)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("iteration %d: views differ", i)
		}
	}
}
