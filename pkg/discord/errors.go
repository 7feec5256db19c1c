package discord

import "eventposter/internal/domain"

// ErrorKey maps an error from the event core to the i18n key of the
// message shown to the user.
func ErrorKey(err error) string {
	if err == nil {
		return ""
	}
	code := domain.Code(err)
	switch {
	case code == "":
		return "errors.generic"
	case domain.IsRejection(err):
		return "notice." + code
	default:
		return "errors." + code
	}
}
