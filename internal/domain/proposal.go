package domain

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Pricing is the normalized breakdown produced by the price resolver.
// Every downstream component consumes this shape only; the raw
// per-source price fields never leave the adapters.
type Pricing struct {
	TotalGross       float64 `json:"totalGross"`
	TotalTax         float64 `json:"totalTax"`
	DiscountPct      float64 `json:"discountPct"`
	DiscountAmount   float64 `json:"discountAmount"`
	FinalClientPrice float64 `json:"finalClientPrice"`
}

// Proposal is one package option attached to a lead. ItineraryID is 0
// for manual whole-package entries that have no backing itinerary.
type Proposal struct {
	ID            string    `json:"id"`
	ItineraryID   int64     `json:"itinerary_id,omitempty"`
	OptionNumber  int       `json:"optionNumber"`
	ItineraryName string    `json:"itinerary_name"`
	Destination   string    `json:"destination"`
	Duration      int       `json:"duration"`
	Price         float64   `json:"price"`
	Pricing       Pricing   `json:"pricing"`
	Confirmed     bool      `json:"confirmed"`
	Image         string    `json:"image,omitempty"`
	InsertedAt    time.Time `json:"inserted_at"`
}

// HotelLine is one per-day accommodation row inside an option.
type HotelLine struct {
	Day           int     `json:"day"`
	HotelID       int64   `json:"hotel_id,omitempty"`
	HotelName     string  `json:"hotel_name"`
	Room          string  `json:"room"`
	MealPlan      string  `json:"meal_plan"`
	CategoryStars int     `json:"category,omitempty"`
	Price         float64 `json:"price"`
	Image         string  `json:"image,omitempty"`
	CheckIn       string  `json:"check_in,omitempty"`
	CheckOut      string  `json:"check_out,omitempty"`
}

// DedupeKey collapses the same hotel reaching us through redundant
// sources: hotel id when known, else the name, always scoped to the day.
func (h HotelLine) DedupeKey() string {
	if h.HotelID != 0 {
		return fmt.Sprintf("%d@%d", h.HotelID, h.Day)
	}
	return fmt.Sprintf("%s@%d", h.HotelName, h.Day)
}

// OptionSet is the full set of currently defined options for one
// itinerary, keyed by option number.
type OptionSet struct {
	ItineraryID int64
	Options     map[int][]HotelLine
}

// OptionNumbers returns the defined option numbers sorted ascending
// numerically ("10" after "9", never before "2").
func (s OptionSet) OptionNumbers() []int {
	nums := make([]int, 0, len(s.Options))
	for n := range s.Options {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// OverlayEntry is the authoritative final client price for one option,
// as held by the external pricing service.
type OverlayEntry struct {
	FinalPrice  float64
	DiscountPct *float64
}

// PriceOverlay maps option number to its authoritative entry. A missing
// option means the pricing service has nothing for it, not zero.
type PriceOverlay map[int]OverlayEntry

// SortedOptionKeys sorts stringified option numbers numerically; keys
// that do not parse sort last, in lexical order among themselves.
func SortedOptionKeys(m map[string][]HotelLine) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aerr := strconv.Atoi(keys[i])
		b, berr := strconv.Atoi(keys[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		if aerr == nil {
			return true
		}
		if berr == nil {
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}
