package app

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"travelops/internal/domain"
)

// Reconciler merges a lead's cached proposal list with the current
// option set per itinerary, then upgrades prices from the final-price
// overlay. The merged list is committed before any price upgrade so a
// renderable list exists even when every overlay fetch fails.
type Reconciler struct {
	store       domain.ProposalStore
	itineraries domain.ItineraryService

	// overlayWorkers bounds concurrent overlay fetches.
	overlayWorkers int64

	mu   sync.Mutex
	gens map[int64]uint64
}

func NewReconciler(store domain.ProposalStore, itineraries domain.ItineraryService) *Reconciler {
	return &Reconciler{
		store:          store,
		itineraries:    itineraries,
		overlayWorkers: 4,
		gens:           map[int64]uint64{},
	}
}

// nextGen bumps and returns the lead's reconcile generation. A later
// bump invalidates in-flight work so stale overlay results are never
// applied over fresher ones.
func (r *Reconciler) nextGen(leadID int64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gens[leadID]++
	return r.gens[leadID]
}

func (r *Reconciler) genCurrent(leadID int64, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gens[leadID] == gen
}

// commit persists ps only while gen is still the lead's newest
// reconcile; a superseded run reports ok=false and saves nothing.
func (r *Reconciler) commit(ctx context.Context, leadID int64, gen uint64, ps []domain.Proposal) (bool, error) {
	if !r.genCurrent(leadID, gen) {
		return false, nil
	}
	return true, r.store.SaveLeadProposals(ctx, leadID, ps)
}

// Reconcile runs both phases and returns the canonical proposal list.
func (r *Reconciler) Reconcile(ctx context.Context, leadID int64) ([]domain.Proposal, error) {
	gen := r.nextGen(leadID)

	cached, err := r.store.LeadProposals(ctx, leadID)
	if err != nil {
		return nil, err
	}

	merged := r.merge(ctx, cached)

	// Phase-1 commit: the merged list must be renderable before any
	// overlay-derived upgrade lands. Both commits are generation-gated;
	// a superseded run skipping phase 1 matters as much as phase 2,
	// otherwise its stale merged snapshot would revert prices a fresher
	// run already upgraded.
	if ok, err := r.commit(ctx, leadID, gen, merged); err != nil {
		return nil, err
	} else if !ok {
		log.Debug().Int64("lead", leadID).Msg("reconcile superseded before merge commit")
	}

	resolved := r.resolvePrices(ctx, leadID, merged)

	if ok, err := r.commit(ctx, leadID, gen, resolved); err != nil {
		return nil, err
	} else if !ok {
		log.Debug().Int64("lead", leadID).Msg("reconcile superseded, skipping persist")
	}
	return resolved, nil
}

// RefreshPrices re-runs the overlay resolution only, against the
// currently persisted list.
func (r *Reconciler) RefreshPrices(ctx context.Context, leadID int64) ([]domain.Proposal, error) {
	gen := r.nextGen(leadID)

	cached, err := r.store.LeadProposals(ctx, leadID)
	if err != nil {
		return nil, err
	}
	resolved := r.resolvePrices(ctx, leadID, cached)

	if _, err := r.commit(ctx, leadID, gen, resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}

// merge is phase 1. Each itinerary group with a current non-empty
// option set is replaced wholesale by that set, carrying the confirmed
// flag onto the option number previously marked confirmed. Manual
// entries (no itinerary) pass through; itineraries whose current set
// cannot be fetched keep their stale entries.
func (r *Reconciler) merge(ctx context.Context, cached []domain.Proposal) []domain.Proposal {
	confirmedBy := map[int64]int{}
	for _, p := range cached {
		if p.Confirmed && p.ItineraryID != 0 {
			confirmedBy[p.ItineraryID] = p.OptionNumber
		}
	}

	out := make([]domain.Proposal, 0, len(cached))
	replaced := map[int64]bool{}

	for _, p := range cached {
		if p.ItineraryID == 0 {
			out = append(out, p)
			continue
		}
		if replaced[p.ItineraryID] {
			continue
		}
		replaced[p.ItineraryID] = true

		current, err := r.store.ItineraryProposals(ctx, p.ItineraryID)
		if err != nil || len(current) == 0 {
			if err != nil {
				log.Warn().Int64("itinerary", p.ItineraryID).Err(err).
					Msg("option set unavailable, keeping stale proposals")
			}
			out = append(out, groupFor(cached, p.ItineraryID)...)
			continue
		}

		confirmedOpt, hadConfirmed := confirmedBy[p.ItineraryID]
		for _, cur := range current {
			if cur.ID == "" {
				cur.ID = uuid.NewString()
			}
			cur.Confirmed = hadConfirmed && cur.OptionNumber == confirmedOpt
			out = append(out, cur)
		}
	}
	return out
}

func groupFor(ps []domain.Proposal, itineraryID int64) []domain.Proposal {
	var g []domain.Proposal
	for _, p := range ps {
		if p.ItineraryID == itineraryID {
			g = append(g, p)
		}
	}
	return g
}

// resolvePrices is phase 2: fan-out overlay fetches per distinct
// itinerary, fan-in resolved breakdowns. One failing fetch only
// freezes that itinerary's prices; siblings proceed.
func (r *Reconciler) resolvePrices(ctx context.Context, leadID int64, ps []domain.Proposal) []domain.Proposal {
	ids := distinctItineraries(ps)
	if len(ids) == 0 {
		return ps
	}

	overlays := make(map[int64]domain.PriceOverlay, len(ids))
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = semaphore.NewWeighted(r.overlayWorkers)
	)
	for _, id := range ids {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(itineraryID int64) {
			defer wg.Done()
			defer sem.Release(1)

			ov, err := r.itineraries.PriceOverlay(ctx, itineraryID)
			if err != nil {
				log.Warn().Int64("lead", leadID).Int64("itinerary", itineraryID).Err(err).
					Msg("overlay fetch failed, keeping known prices")
				return
			}
			mu.Lock()
			overlays[itineraryID] = ov
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	out := make([]domain.Proposal, len(ps))
	copy(out, ps)
	for i, p := range out {
		ov, ok := overlays[p.ItineraryID]
		if !ok {
			continue
		}
		pricing := ResolvePrice(p, ov)
		out[i].Pricing = pricing
		out[i].Price = pricing.FinalClientPrice
	}
	return out
}

func distinctItineraries(ps []domain.Proposal) []int64 {
	seen := map[int64]bool{}
	var ids []int64
	for _, p := range ps {
		if p.ItineraryID != 0 && !seen[p.ItineraryID] {
			seen[p.ItineraryID] = true
			ids = append(ids, p.ItineraryID)
		}
	}
	return ids
}
