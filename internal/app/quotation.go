package app

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"

	"travelops/internal/domain"
)

// QuotationBuilder assembles the normalized QuotationView consumed by
// every renderer. Building never hard-fails on a missing upstream
// itinerary record; the proposal's cached copy fills the gap.
type QuotationBuilder struct {
	store       domain.ProposalStore
	leads       domain.LeadService
	itineraries domain.ItineraryService
}

func NewQuotationBuilder(store domain.ProposalStore, leads domain.LeadService, itineraries domain.ItineraryService) *QuotationBuilder {
	return &QuotationBuilder{store: store, leads: leads, itineraries: itineraries}
}

// Build loads the lead and its proposals and produces the view for the
// lead's current quotation target: the confirmed proposal when one
// exists, else the first itinerary-backed proposal. requestedOption
// narrows the visible options only while nothing is confirmed; pass 0
// for no preference.
func (b *QuotationBuilder) Build(ctx context.Context, leadID int64, requestedOption int) (domain.QuotationView, error) {
	lead, err := b.leads.GetLead(ctx, leadID)
	if err != nil {
		return domain.QuotationView{}, err
	}
	proposals, err := b.store.LeadProposals(ctx, leadID)
	if err != nil {
		return domain.QuotationView{}, err
	}

	target, ok := pickTarget(proposals)
	if !ok {
		return domain.QuotationView{}, domain.ErrNotFound
	}
	return b.BuildForProposal(ctx, lead, proposals, target, requestedOption)
}

// BuildForProposal builds the view for one proposal's itinerary.
// The visibility rule: a confirmed option always wins; else the
// caller-requested option when it exists in the option set; else every
// option present, sorted ascending numerically.
func (b *QuotationBuilder) BuildForProposal(ctx context.Context, lead domain.Lead, proposals []domain.Proposal, target domain.Proposal, requestedOption int) (domain.QuotationView, error) {
	set, err := b.store.DayEvents(ctx, target.ItineraryID)
	if err != nil {
		return domain.QuotationView{}, err
	}

	meta := b.metadata(ctx, target)

	all := map[string][]domain.HotelLine{}
	for opt, lines := range set.Options {
		all[strconv.Itoa(opt)] = dedupeLines(lines)
	}

	visible := visibleOptions(all, proposals, target, requestedOption)

	options := map[string][]domain.HotelLine{}
	totals := map[string]domain.Pricing{}
	for _, key := range visible {
		lines := all[key]
		options[key] = lines
		opt, _ := strconv.Atoi(key)
		totals[key] = ResolveOptionTotal(proposals, target.ItineraryID, opt, lines)
	}

	return domain.QuotationView{
		Lead:         lead,
		Itinerary:    meta,
		HotelOptions: options,
		Totals:       totals,
	}, nil
}

// metadata looks up the upstream itinerary record, falling back to the
// proposal's cached fields so a missing record never blocks document
// generation.
func (b *QuotationBuilder) metadata(ctx context.Context, p domain.Proposal) domain.ItineraryMeta {
	fallback := domain.ItineraryMeta{
		ID:          p.ItineraryID,
		Name:        p.ItineraryName,
		Destination: p.Destination,
		Duration:    p.Duration,
		Image:       p.Image,
	}
	if p.ItineraryID == 0 {
		return fallback
	}
	meta, err := b.itineraries.Metadata(ctx, p.ItineraryID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Int64("itinerary", p.ItineraryID).Err(err).
				Msg("metadata lookup failed, using cached proposal fields")
		}
		return fallback
	}
	// The proposal's cached duration/destination may be fresher than
	// the shared record (edited per lead); prefer them when set.
	if p.Duration > 0 {
		meta.Duration = p.Duration
	}
	if p.Destination != "" {
		meta.Destination = p.Destination
	}
	return meta
}

func pickTarget(proposals []domain.Proposal) (domain.Proposal, bool) {
	for _, p := range proposals {
		if p.Confirmed {
			return p, true
		}
	}
	for _, p := range proposals {
		if p.ItineraryID != 0 {
			return p, true
		}
	}
	return domain.Proposal{}, false
}

func visibleOptions(all map[string][]domain.HotelLine, proposals []domain.Proposal, target domain.Proposal, requested int) []string {
	for _, p := range proposals {
		if p.Confirmed && p.ItineraryID == target.ItineraryID {
			key := strconv.Itoa(p.OptionNumber)
			if _, ok := all[key]; ok {
				return []string{key}
			}
			return nil
		}
	}
	if requested > 0 {
		key := strconv.Itoa(requested)
		if _, ok := all[key]; ok {
			return []string{key}
		}
	}
	return domain.SortedOptionKeys(all)
}

// dedupeLines collapses hotel lines sharing (hotel id or name)+day,
// keeping the first occurrence, and orders the result by day.
func dedupeLines(lines []domain.HotelLine) []domain.HotelLine {
	seen := map[string]bool{}
	out := make([]domain.HotelLine, 0, len(lines))
	for _, h := range lines {
		k := h.DedupeKey()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, h)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Day < out[j-1].Day; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
