package domain

import "errors"

// Domain errors.
var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventExists       = errors.New("hoster already has an active event")
	ErrCannotReduceSlots = errors.New("cannot reduce slots below current member count")
	ErrNotHoster         = errors.New("only the hoster can do this")

	// ErrUnavailable marks a chat-platform entity (guild, channel, message,
	// member) that no longer resolves: not found or forbidden.
	ErrUnavailable = errors.New("entity unavailable")
)

// Rejection is a user-input rejection: the acting user gets an ephemeral
// notice and the event is left untouched.
type Rejection struct {
	code string
}

func (r *Rejection) Error() string { return "rejected: " + r.code }

// Code is the stable identifier used to look up the user-facing notice.
func (r *Rejection) Code() string { return r.code }

var (
	ErrAlreadyMember = &Rejection{code: "already_member"}
	ErrEventFull     = &Rejection{code: "event_full"}
	ErrNotMember     = &Rejection{code: "not_member"}
	ErrHosterMaybe   = &Rejection{code: "hoster_maybe"}
	ErrHosterLeave   = &Rejection{code: "hoster_leave"}
	ErrUnknownOption = &Rejection{code: "unknown_option"}
)

// IsRejection reports whether err is a user-input rejection.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}

// Code extracts the domain error code from err, or "" when err is not a
// known domain error.
func Code(err error) string {
	var r *Rejection
	if errors.As(err, &r) {
		return r.code
	}
	switch {
	case errors.Is(err, ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, ErrEventExists):
		return "event_exists"
	case errors.Is(err, ErrCannotReduceSlots):
		return "cannot_reduce_slots"
	case errors.Is(err, ErrNotHoster):
		return "not_hoster"
	default:
		return ""
	}
}
