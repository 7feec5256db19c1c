package discord

import (
	"strconv"
	"strings"

	"eventposter/internal/domain"
)

// CustomID encodes the component id of an event control, e.g. "join-1234".
func CustomID(kind domain.Kind, hosterID int64) string {
	return kind.String() + "-" + strconv.FormatInt(hosterID, 10)
}

// ParseCustomID is the inverse of CustomID. Ids of other components return
// ok=false.
func ParseCustomID(id string) (kind domain.Kind, hosterID int64, ok bool) {
	name, raw, found := strings.Cut(id, "-")
	if !found {
		return 0, 0, false
	}
	kind, ok = domain.ParseKind(name)
	if !ok {
		return 0, 0, false
	}
	hosterID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || hosterID <= 0 {
		return 0, 0, false
	}
	return kind, hosterID, true
}
