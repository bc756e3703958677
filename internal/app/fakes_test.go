package app_test

import (
	"context"
	"errors"
	"sync"

	"travelops/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	mu      sync.Mutex
	leads   map[int64][]domain.Proposal
	itins   map[int64][]domain.Proposal
	itinErr map[int64]error
	events  map[int64]domain.OptionSet

	// saved records every SaveLeadProposals snapshot in order.
	saved [][]domain.Proposal

	// itinHook, when set, runs before ItineraryProposals answers.
	itinHook func(itineraryID int64)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:   map[int64][]domain.Proposal{},
		itins:   map[int64][]domain.Proposal{},
		itinErr: map[int64]error{},
		events:  map[int64]domain.OptionSet{},
	}
}

func (f *fakeStore) LeadProposals(ctx context.Context, leadID int64) ([]domain.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Proposal, len(f.leads[leadID]))
	copy(out, f.leads[leadID])
	return out, nil
}

func (f *fakeStore) SaveLeadProposals(ctx context.Context, leadID int64, ps []domain.Proposal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := make([]domain.Proposal, len(ps))
	copy(snap, ps)
	f.leads[leadID] = snap
	f.saved = append(f.saved, snap)
	return nil
}

func (f *fakeStore) ItineraryProposals(ctx context.Context, itineraryID int64) ([]domain.Proposal, error) {
	if f.itinHook != nil {
		f.itinHook(itineraryID)
	}
	if err := f.itinErr[itineraryID]; err != nil {
		return nil, err
	}
	return f.itins[itineraryID], nil
}

func (f *fakeStore) DayEvents(ctx context.Context, itineraryID int64) (domain.OptionSet, error) {
	if set, ok := f.events[itineraryID]; ok {
		return set, nil
	}
	return domain.OptionSet{ItineraryID: itineraryID, Options: map[int][]domain.HotelLine{}}, nil
}

type fakeItineraries struct {
	meta       map[int64]domain.ItineraryMeta
	overlays   map[int64]domain.PriceOverlay
	overlayErr map[int64]error
}

func newFakeItineraries() *fakeItineraries {
	return &fakeItineraries{
		meta:       map[int64]domain.ItineraryMeta{},
		overlays:   map[int64]domain.PriceOverlay{},
		overlayErr: map[int64]error{},
	}
}

func (f *fakeItineraries) Metadata(ctx context.Context, itineraryID int64) (domain.ItineraryMeta, error) {
	if m, ok := f.meta[itineraryID]; ok {
		return m, nil
	}
	return domain.ItineraryMeta{}, domain.ErrNotFound
}

func (f *fakeItineraries) PriceOverlay(ctx context.Context, itineraryID int64) (domain.PriceOverlay, error) {
	if err := f.overlayErr[itineraryID]; err != nil {
		return nil, err
	}
	if ov, ok := f.overlays[itineraryID]; ok {
		return ov, nil
	}
	return domain.PriceOverlay{}, nil
}

type fakeLeads struct {
	lead   domain.Lead
	getErr error

	mu            sync.Mutex
	statusUpdates []domain.LeadStatus
	notices       []domain.ConfirmationNotice
	notifyErr     error
	summary       domain.PaymentSummary
	summaryErr    error
}

func (f *fakeLeads) GetLead(ctx context.Context, id int64) (domain.Lead, error) {
	if f.getErr != nil {
		return domain.Lead{}, f.getErr
	}
	return f.lead, nil
}

func (f *fakeLeads) UpdateStatus(ctx context.Context, id int64, status domain.LeadStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

func (f *fakeLeads) NotifyConfirmation(ctx context.Context, id int64, n domain.ConfirmationNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.notices = append(f.notices, n)
	return nil
}

func (f *fakeLeads) PaymentSummary(ctx context.Context, id int64) (domain.PaymentSummary, error) {
	if f.summaryErr != nil {
		return domain.PaymentSummary{}, f.summaryErr
	}
	return f.summary, nil
}

type fakeSettings struct {
	skin string
	pol  domain.Policies
}

func (f *fakeSettings) SelectedSkin(ctx context.Context) (string, error) { return f.skin, nil }
func (f *fakeSettings) Policies(ctx context.Context) (domain.Policies, error) {
	return f.pol, nil
}

type emailCall struct {
	to, subject, body string
}

type fakeEmail struct {
	mu    sync.Mutex
	calls []emailCall
	res   domain.DispatchResult
	err   error
}

func (f *fakeEmail) SendEmail(ctx context.Context, leadID int64, to, subject, htmlBody string) (domain.DispatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, emailCall{to: to, subject: subject, body: htmlBody})
	if f.err != nil {
		return domain.DispatchResult{}, f.err
	}
	return f.res, nil
}

type fakeWhatsApp struct {
	mu    sync.Mutex
	texts []string
	res   domain.DispatchResult
	err   error
}

func (f *fakeWhatsApp) SendWhatsApp(ctx context.Context, leadID int64, text string) (domain.DispatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.err != nil {
		return domain.DispatchResult{}, f.err
	}
	return f.res, nil
}

var errUpstream = errors.New("upstream down")
