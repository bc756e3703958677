package render

import (
	"fmt"
	"strings"

	"travelops/internal/domain"
)

// WhatsApp renders the quotation as a plain-text message digest.
func (r *Renderer) WhatsApp(view domain.QuotationView, options []string) string {
	if options == nil {
		options = view.VisibleOptions()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Travel Quotation - %s*\n\n", view.Lead.ClientName)
	fmt.Fprintf(&b, "Query ID: %s\n", view.Lead.QueryID())
	if view.Itinerary.Destination != "" {
		fmt.Fprintf(&b, "Destination: %s\n", view.Itinerary.Destination)
	}
	if view.Itinerary.Duration > 0 {
		fmt.Fprintf(&b, "Duration: %d Nights & %d Days\n", view.Itinerary.Duration, view.Itinerary.Duration+1)
	}

	for _, key := range options {
		lines, ok := view.HotelOptions[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n*Option %s:*\n", key)
		for _, h := range lines {
			name := h.HotelName
			if name == "" {
				name = "Hotel"
			}
			if h.CategoryStars > 0 {
				fmt.Fprintf(&b, "• Day %d: %s (%d Star)\n", h.Day, name, h.CategoryStars)
			} else {
				fmt.Fprintf(&b, "• Day %d: %s\n", h.Day, name)
			}
			if h.Room != "" {
				fmt.Fprintf(&b, "  Room: %s\n", h.Room)
			}
			if h.MealPlan != "" {
				fmt.Fprintf(&b, "  Meals: %s\n", h.MealPlan)
			}
		}
		fmt.Fprintf(&b, "Total Price: %s\n", FormatINR(view.Totals[key].FinalClientPrice))
	}

	fmt.Fprintf(&b, "\nFor bookings and queries, reply to this message.\n")
	fmt.Fprintf(&b, "%s | %s\n", r.Company.Name, r.Company.Line)
	return b.String()
}
