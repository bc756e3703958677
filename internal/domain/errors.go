package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks an upstream 404; callers degrade to fallback
	// data instead of failing the operation.
	ErrNotFound = errors.New("not found")

	// ErrUnknownOption is returned when confirm is called with a
	// proposal id the lead does not have.
	ErrUnknownOption = errors.New("unknown option id")

	// ErrConfirmedLocked guards bulk removal while a proposal is
	// confirmed.
	ErrConfirmedLocked = errors.New("lead has a confirmed option")
)

// ContactMissingError is the fail-fast error for a dispatch whose
// requested channel has no contact method on the lead. No outbound
// call is made.
type ContactMissingError struct {
	Channel Channel
}

func (e *ContactMissingError) Error() string {
	switch e.Channel {
	case ChannelEmail:
		return "no email address on this lead"
	case ChannelWhatsApp:
		return "no phone number on this lead"
	default:
		return fmt.Sprintf("no contact method for channel %q", e.Channel)
	}
}

// IsContactMissing reports whether err is a ContactMissingError.
func IsContactMissing(err error) bool {
	var cm *ContactMissingError
	return errors.As(err, &cm)
}
