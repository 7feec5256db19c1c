package domain

// Kind is the variant of a user interaction on an event message.
type Kind int

const (
	KindJoin Kind = iota + 1
	KindLeave
	KindMaybeJoin
	KindSelectOption
	KindConfirmEnd
	KindCancelEnd
)

func (k Kind) String() string {
	switch k {
	case KindJoin:
		return "join"
	case KindLeave:
		return "leave"
	case KindMaybeJoin:
		return "maybejoin"
	case KindSelectOption:
		return "playerclass"
	case KindConfirmEnd:
		return "endconfirm"
	case KindCancelEnd:
		return "endcancel"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := KindJoin; k <= KindCancelEnd; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Interaction is one button press or select on an event message.
type Interaction struct {
	Kind     Kind
	GuildID  int64
	UserID   int64
	HosterID int64
	// Option is the selected label for KindSelectOption.
	Option string
}
