package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"travelops/internal/domain"
)

// ConfirmOutcome reports a confirmation and its side effects. The
// confirmation itself is never rolled back; each side effect failure is
// listed in Problems and retryable on its own.
type ConfirmOutcome struct {
	Proposal   domain.Proposal         `json:"proposal"`
	Notified   bool                    `json:"notified"`
	Dispatches []domain.DispatchResult `json:"dispatches,omitempty"`
	Payment    *domain.PaymentSummary  `json:"payment,omitempty"`
	Problems   []string                `json:"problems,omitempty"`
}

// ConfirmationStateMachine enforces the single-confirmed-option
// invariant. There is no unconfirm transition; confirming a different
// option silently replaces the previous confirmation.
type ConfirmationStateMachine struct {
	store      domain.ProposalStore
	leads      domain.LeadService
	dispatcher *Dispatcher

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewConfirmationStateMachine(store domain.ProposalStore, leads domain.LeadService, dispatcher *Dispatcher) *ConfirmationStateMachine {
	return &ConfirmationStateMachine{
		store:      store,
		leads:      leads,
		dispatcher: dispatcher,
		locks:      map[int64]*sync.Mutex{},
	}
}

// leadLock serializes the unset-all/set-one/persist sequence per lead
// so concurrent confirms cannot interleave.
func (m *ConfirmationStateMachine) leadLock(leadID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[leadID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[leadID] = l
	}
	return l
}

// Confirm atomically sets confirmed on the matching proposal and
// unsets all siblings, persists, then runs the side effects.
func (m *ConfirmationStateMachine) Confirm(ctx context.Context, leadID int64, optionID string) (ConfirmOutcome, error) {
	lock := m.leadLock(leadID)
	lock.Lock()

	proposals, err := m.store.LeadProposals(ctx, leadID)
	if err != nil {
		lock.Unlock()
		return ConfirmOutcome{}, err
	}

	var confirmed *domain.Proposal
	for i := range proposals {
		proposals[i].Confirmed = proposals[i].ID == optionID
		if proposals[i].Confirmed {
			confirmed = &proposals[i]
		}
	}
	if confirmed == nil {
		lock.Unlock()
		return ConfirmOutcome{}, domain.ErrUnknownOption
	}
	if err := m.store.SaveLeadProposals(ctx, leadID, proposals); err != nil {
		lock.Unlock()
		return ConfirmOutcome{}, err
	}
	lock.Unlock()

	out := ConfirmOutcome{Proposal: *confirmed}

	// Side effects: each independently reported, none rolls back the
	// confirmation.
	if err := m.leads.NotifyConfirmation(ctx, leadID, domain.ConfirmationNotice{
		OptionNumber:  confirmed.OptionNumber,
		TotalAmount:   confirmed.Pricing.FinalClientPrice,
		ItineraryName: confirmed.ItineraryName,
	}); err != nil {
		log.Warn().Int64("lead", leadID).Err(err).Msg("confirmation notify failed")
		out.Problems = append(out.Problems, "notify: "+err.Error())
	} else {
		out.Notified = true
	}

	results, err := m.dispatcher.SendConfirmed(ctx, leadID, *confirmed)
	out.Dispatches = results
	if err != nil {
		log.Warn().Int64("lead", leadID).Err(err).Msg("post-confirm dispatch failed")
		out.Problems = append(out.Problems, "dispatch: "+err.Error())
	}

	if summary, err := m.leads.PaymentSummary(ctx, leadID); err != nil {
		log.Warn().Int64("lead", leadID).Err(err).Msg("payment summary refresh failed")
		out.Problems = append(out.Problems, "payment: "+err.Error())
	} else {
		out.Payment = &summary
	}

	return out, nil
}

// ConfirmedOption returns the lead's confirmed proposal, if any.
func (m *ConfirmationStateMachine) ConfirmedOption(ctx context.Context, leadID int64) (domain.Proposal, bool, error) {
	proposals, err := m.store.LeadProposals(ctx, leadID)
	if err != nil {
		return domain.Proposal{}, false, err
	}
	for _, p := range proposals {
		if p.Confirmed {
			return p, true, nil
		}
	}
	return domain.Proposal{}, false, nil
}

// RemoveAll bulk-removes the lead's proposals. Removal is blocked
// while any proposal is confirmed.
func (m *ConfirmationStateMachine) RemoveAll(ctx context.Context, leadID int64) error {
	lock := m.leadLock(leadID)
	lock.Lock()
	defer lock.Unlock()

	proposals, err := m.store.LeadProposals(ctx, leadID)
	if err != nil {
		return err
	}
	for _, p := range proposals {
		if p.Confirmed {
			return domain.ErrConfirmedLocked
		}
	}
	return m.store.SaveLeadProposals(ctx, leadID, nil)
}
