package domain

// ItineraryMeta is the upstream itinerary record. The builder falls
// back to the proposal's cached copy when the lookup 404s.
type ItineraryMeta struct {
	ID          int64  `json:"id"`
	Name        string `json:"itinerary_name"`
	Destination string `json:"destination"`
	Duration    int    `json:"duration"`
	Image       string `json:"image,omitempty"`
}

// QuotationView is the normalized, render-agnostic quotation content.
// HotelOptions is keyed by stringified option number and already
// filtered to the options that should be visible; Totals carries the
// resolved breakdown per visible option and always wins over a naive
// sum of the hotel-line prices.
type QuotationView struct {
	Lead         Lead                   `json:"lead"`
	Itinerary    ItineraryMeta          `json:"itinerary"`
	HotelOptions map[string][]HotelLine `json:"hotelOptions"`
	Totals       map[string]Pricing     `json:"totals"`
}

// VisibleOptions returns the view's option numbers sorted numerically.
func (v QuotationView) VisibleOptions() []string {
	return SortedOptionKeys(v.HotelOptions)
}

// Channel is an outbound document channel.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelBoth     Channel = "both"
)

// DispatchResult reports one outbound send. RecordID identifies the
// record created in the external channel's log; sends are never
// deduplicated, so every invocation yields a fresh one.
type DispatchResult struct {
	Channel  Channel `json:"channel"`
	Success  bool    `json:"success"`
	Message  string  `json:"message,omitempty"`
	RecordID string  `json:"record_id,omitempty"`
}

// Policies are the independently toggled policy texts appended to
// rendered documents. Empty fields are omitted from output.
type Policies struct {
	Remarks      string `json:"remarks,omitempty"`
	Terms        string `json:"terms_conditions,omitempty"`
	Confirmation string `json:"confirmation_policy,omitempty"`
	Cancellation string `json:"cancellation_policy,omitempty"`
	Amendment    string `json:"amendment_policy,omitempty"`
	ThankYou     string `json:"thank_you_message,omitempty"`
}

// ConfirmationNotice is pushed to the lead service when an option is
// confirmed so it can create invoice and voucher records.
type ConfirmationNotice struct {
	OptionNumber  int     `json:"option_number"`
	TotalAmount   float64 `json:"total_amount"`
	ItineraryName string  `json:"itinerary_name"`
}
