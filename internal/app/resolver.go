package app

import (
	"math"

	"travelops/internal/domain"
)

// ResolvePrice produces the one authoritative price for a proposal.
// Precedence: overlay entry for the option when present and >= 0,
// then the cached breakdown's FinalClientPrice, then the cached
// top-level Price, then 0. Deterministic for identical inputs.
//
// When the overlay carries a discount percentage in (0, 100), the
// pre-discount original is reconstructed as round(final / (1 - pct/100))
// and the difference is reported as DiscountAmount. Out-of-range
// percentages behave as no discount.
func ResolvePrice(p domain.Proposal, overlay domain.PriceOverlay) domain.Pricing {
	if entry, ok := overlay[p.OptionNumber]; ok && entry.FinalPrice >= 0 && !math.IsNaN(entry.FinalPrice) {
		return breakdownFromOverlay(p.Pricing, entry)
	}
	return cachedPricing(p)
}

// cachedPricing normalizes the shape-shifting cached price fields into
// one breakdown without consulting the overlay.
func cachedPricing(p domain.Proposal) domain.Pricing {
	pr := p.Pricing
	if pr.FinalClientPrice > 0 {
		return pr
	}
	if p.Price > 0 {
		pr.FinalClientPrice = p.Price
		return pr
	}
	pr.FinalClientPrice = 0
	return pr
}

func breakdownFromOverlay(cached domain.Pricing, entry domain.OverlayEntry) domain.Pricing {
	out := cached
	out.FinalClientPrice = entry.FinalPrice

	pct := 0.0
	if entry.DiscountPct != nil {
		pct = *entry.DiscountPct
	}
	if pct > 0 && pct < 100 {
		original := math.Round(entry.FinalPrice / (1 - pct/100))
		out.DiscountPct = pct
		out.DiscountAmount = original - entry.FinalPrice
	} else {
		out.DiscountPct = 0
		out.DiscountAmount = 0
	}
	return out
}

// ResolveOptionTotal picks the displayed total for an option: the
// resolved proposal price when one exists for the option number on the
// given itinerary, else the naive sum of its hotel-line prices. The
// resolved price always wins when the two disagree. Option numbers
// repeat across itineraries, so the itinerary match is mandatory: a
// lead holding proposals from two itineraries must never show one
// itinerary's option 1 priced with the other's.
func ResolveOptionTotal(proposals []domain.Proposal, itineraryID int64, option int, lines []domain.HotelLine) domain.Pricing {
	for _, p := range proposals {
		if p.ItineraryID == itineraryID && p.OptionNumber == option && p.Pricing.FinalClientPrice > 0 {
			return p.Pricing
		}
	}
	var sum float64
	for _, h := range lines {
		sum += h.Price
	}
	return domain.Pricing{FinalClientPrice: sum}
}
