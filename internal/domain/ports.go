package domain

import "context"

// ProposalStore is the lead/itinerary-scoped key-value store. Only the
// reconciler and the confirmation state machine write lead proposals;
// everything else reads.
type ProposalStore interface {
	LeadProposals(ctx context.Context, leadID int64) ([]Proposal, error)
	SaveLeadProposals(ctx context.Context, leadID int64, ps []Proposal) error

	// ItineraryProposals is the current option set for an itinerary in
	// proposal form, as synced by the itinerary editor. Read-only here.
	ItineraryProposals(ctx context.Context, itineraryID int64) ([]Proposal, error)

	// DayEvents returns the day-indexed hotel assignments per option.
	DayEvents(ctx context.Context, itineraryID int64) (OptionSet, error)
}

// SettingsStore holds the persisted email skin selection and the
// policy texts.
type SettingsStore interface {
	SelectedSkin(ctx context.Context) (string, error)
	Policies(ctx context.Context) (Policies, error)
}

// LeadService is the external CRM lead surface.
type LeadService interface {
	GetLead(ctx context.Context, id int64) (Lead, error)
	UpdateStatus(ctx context.Context, id int64, status LeadStatus) error
	NotifyConfirmation(ctx context.Context, id int64, n ConfirmationNotice) error
	PaymentSummary(ctx context.Context, id int64) (PaymentSummary, error)
}

// ItineraryService exposes itinerary metadata and the final-price
// overlay held by the external pricing service. Metadata may return
// ErrNotFound; PriceOverlay failures are per-itinerary and must not
// block resolution for others.
type ItineraryService interface {
	Metadata(ctx context.Context, itineraryID int64) (ItineraryMeta, error)
	PriceOverlay(ctx context.Context, itineraryID int64) (PriceOverlay, error)
}

// EmailSender sends one HTML document. The returned result carries the
// upstream message verbatim.
type EmailSender interface {
	SendEmail(ctx context.Context, leadID int64, to, subject, htmlBody string) (DispatchResult, error)
}

// WhatsAppSender sends one text message to the lead's phone.
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, leadID int64, text string) (DispatchResult, error)
}

// PDFPrinter turns PDF-ready HTML into PDF bytes.
type PDFPrinter interface {
	Print(ctx context.Context, html string) ([]byte, error)
}
