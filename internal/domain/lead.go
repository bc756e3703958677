package domain

import (
	"fmt"
	"time"
)

// LeadStatus is the pipeline stage reported by the external lead service.
type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusProposal  LeadStatus = "proposal"
	StatusFollowup  LeadStatus = "followup"
	StatusConfirmed LeadStatus = "confirmed"
	StatusCancelled LeadStatus = "cancelled"
)

// StageRank orders the pipeline stages so status updates stay one-way.
// Unknown stages rank lowest and can always be advanced from.
func StageRank(s LeadStatus) int {
	switch s {
	case StatusNew:
		return 1
	case StatusProposal:
		return 2
	case StatusFollowup:
		return 3
	case StatusConfirmed:
		return 4
	case StatusCancelled:
		return 5
	default:
		return 0
	}
}

type Lead struct {
	ID          int64
	ClientName  string
	Email       string
	Phone       string
	Adults      int
	Children    int
	Infants     int
	Destination string
	TravelDate  *time.Time
	Status      LeadStatus
}

// QueryID is the zero-padded display form used on every outbound document.
func (l Lead) QueryID() string {
	return fmt.Sprintf("QID-%06d", l.ID)
}

type PaymentSummary struct {
	TotalAmount float64 `json:"total_amount"`
	TotalPaid   float64 `json:"total_paid"`
	TotalDue    float64 `json:"total_due"`
}
