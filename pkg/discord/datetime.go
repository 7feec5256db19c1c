package discord

import (
	"strings"
	"time"

	"eventposter/internal/ports/output"
)

var durationUnits = []struct {
	key  string
	size time.Duration
}{
	{"duration.weeks", 7 * 24 * time.Hour},
	{"duration.days", 24 * time.Hour},
	{"duration.hours", time.Hour},
	{"duration.minutes", time.Minute},
	{"duration.seconds", time.Second},
}

// HumanizeDuration renders d as "1 day, 2 hours, 5 minutes", dropping zero
// units and anything below a second. Negative durations render as zero.
func HumanizeDuration(tr output.T, locale string, d time.Duration) string {
	if d < time.Second {
		return tr.TN(locale, "duration.seconds", 0, nil)
	}
	var parts []string
	for _, u := range durationUnits {
		n := int(d / u.size)
		if n == 0 {
			continue
		}
		d -= time.Duration(n) * u.size
		parts = append(parts, tr.TN(locale, u.key, n, nil))
	}
	return strings.Join(parts, ", ")
}
