package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"travelops/internal/adapters/observability"
	"travelops/internal/domain"
	"travelops/internal/render"
)

// Dispatcher renders quotation documents and sends them through the
// external email/whatsapp channels. Sends are never deduplicated;
// every invocation creates a fresh outbound record.
type Dispatcher struct {
	builder  *QuotationBuilder
	renderer *render.Renderer
	settings domain.SettingsStore
	leads    domain.LeadService
	email    domain.EmailSender
	whatsapp domain.WhatsAppSender
}

func NewDispatcher(builder *QuotationBuilder, renderer *render.Renderer, settings domain.SettingsStore, leads domain.LeadService, email domain.EmailSender, whatsapp domain.WhatsAppSender) *Dispatcher {
	return &Dispatcher{
		builder:  builder,
		renderer: renderer,
		settings: settings,
		leads:    leads,
		email:    email,
		whatsapp: whatsapp,
	}
}

// Send dispatches the document for one option. The contact method for
// every requested channel is checked before any outbound call; a
// missing one fails the whole send rather than attempting a partial.
func (d *Dispatcher) Send(ctx context.Context, leadID int64, option int, channel domain.Channel) ([]domain.DispatchResult, error) {
	lead, err := d.leads.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if err := requireContact(lead, channel); err != nil {
		return nil, err
	}

	view, err := d.builder.Build(ctx, leadID, option)
	if err != nil {
		return nil, err
	}
	return d.deliver(ctx, lead, view, channel)
}

// SendAll dispatches the lead's whole quotation: the confirmed option
// when one exists, else the lowest available option number.
func (d *Dispatcher) SendAll(ctx context.Context, leadID int64, channel domain.Channel) ([]domain.DispatchResult, error) {
	proposals, err := d.builder.store.LeadProposals(ctx, leadID)
	if err != nil {
		return nil, err
	}
	option := 0
	for _, p := range proposals {
		if p.Confirmed {
			option = p.OptionNumber
			break
		}
		if option == 0 || p.OptionNumber < option {
			option = p.OptionNumber
		}
	}
	return d.Send(ctx, leadID, option, channel)
}

// SendConfirmed is the post-confirmation auto-dispatch: it targets the
// channels the lead actually has contact info for and skips quietly
// when there is none.
func (d *Dispatcher) SendConfirmed(ctx context.Context, leadID int64, confirmed domain.Proposal) ([]domain.DispatchResult, error) {
	lead, err := d.leads.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	channel, ok := availableChannel(lead)
	if !ok {
		log.Info().Int64("lead", leadID).Msg("confirmed option not auto-sent, no contact info")
		return nil, nil
	}
	view, err := d.builder.Build(ctx, leadID, confirmed.OptionNumber)
	if err != nil {
		return nil, err
	}
	return d.deliver(ctx, lead, view, channel)
}

func (d *Dispatcher) deliver(ctx context.Context, lead domain.Lead, view domain.QuotationView, channel domain.Channel) ([]domain.DispatchResult, error) {
	options := view.VisibleOptions()
	var results []domain.DispatchResult

	if channel == domain.ChannelEmail || channel == domain.ChannelBoth {
		results = append(results, d.deliverEmail(ctx, lead, view, options))
	}
	if channel == domain.ChannelWhatsApp || channel == domain.ChannelBoth {
		results = append(results, d.deliverWhatsApp(ctx, lead, view, options))
	}
	return results, nil
}

func (d *Dispatcher) deliverEmail(ctx context.Context, lead domain.Lead, view domain.QuotationView, options []string) domain.DispatchResult {
	skin := d.selectedSkin(ctx)
	policies := d.policies(ctx)

	body, err := d.renderer.Email(view, options, skin, policies)
	if err != nil {
		observability.ObserveDispatch("email", "render_error")
		return domain.DispatchResult{Channel: domain.ChannelEmail, Message: err.Error()}
	}
	subject := fmt.Sprintf("Travel Quotation - %s - %s", view.Itinerary.Name, lead.QueryID())

	res, err := d.email.SendEmail(ctx, lead.ID, lead.Email, subject, body)
	if err != nil {
		observability.ObserveDispatch("email", "error")
		return domain.DispatchResult{Channel: domain.ChannelEmail, Message: err.Error()}
	}
	res.Channel = domain.ChannelEmail
	if res.RecordID == "" {
		res.RecordID = uuid.NewString()
	}
	if res.Success {
		observability.ObserveDispatch("email", "ok")
		d.advanceToProposal(ctx, lead)
	} else {
		observability.ObserveDispatch("email", "rejected")
	}
	return res
}

func (d *Dispatcher) deliverWhatsApp(ctx context.Context, lead domain.Lead, view domain.QuotationView, options []string) domain.DispatchResult {
	text := d.renderer.WhatsApp(view, options)

	res, err := d.whatsapp.SendWhatsApp(ctx, lead.ID, text)
	if err != nil {
		observability.ObserveDispatch("whatsapp", "error")
		return domain.DispatchResult{Channel: domain.ChannelWhatsApp, Message: err.Error()}
	}
	res.Channel = domain.ChannelWhatsApp
	if res.RecordID == "" {
		res.RecordID = uuid.NewString()
	}
	if res.Success {
		observability.ObserveDispatch("whatsapp", "ok")
	} else {
		observability.ObserveDispatch("whatsapp", "rejected")
	}
	return res
}

// advanceToProposal moves an early-stage lead to "proposal" after a
// successful email. The move is one-way; later stages never revert.
func (d *Dispatcher) advanceToProposal(ctx context.Context, lead domain.Lead) {
	if domain.StageRank(lead.Status) >= domain.StageRank(domain.StatusProposal) {
		return
	}
	if err := d.leads.UpdateStatus(ctx, lead.ID, domain.StatusProposal); err != nil {
		log.Warn().Int64("lead", lead.ID).Err(err).Msg("status advance failed")
	}
}

func (d *Dispatcher) selectedSkin(ctx context.Context) string {
	skin, err := d.settings.SelectedSkin(ctx)
	if err != nil || skin == "" {
		return render.SkinClassic
	}
	return skin
}

func (d *Dispatcher) policies(ctx context.Context) domain.Policies {
	pol, err := d.settings.Policies(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("policy settings unavailable, sending without policies")
		return domain.Policies{}
	}
	return pol
}

func requireContact(lead domain.Lead, channel domain.Channel) error {
	if (channel == domain.ChannelEmail || channel == domain.ChannelBoth) && lead.Email == "" {
		return &domain.ContactMissingError{Channel: domain.ChannelEmail}
	}
	if (channel == domain.ChannelWhatsApp || channel == domain.ChannelBoth) && lead.Phone == "" {
		return &domain.ContactMissingError{Channel: domain.ChannelWhatsApp}
	}
	return nil
}

func availableChannel(lead domain.Lead) (domain.Channel, bool) {
	switch {
	case lead.Email != "" && lead.Phone != "":
		return domain.ChannelBoth, true
	case lead.Email != "":
		return domain.ChannelEmail, true
	case lead.Phone != "":
		return domain.ChannelWhatsApp, true
	default:
		return "", false
	}
}
