package tz

import (
	"strings"
	"sync"
	"time"
)

// RefreshInterval is how long a built abbreviation table stays valid.
const RefreshInterval = 24 * time.Hour

// commonZones mirrors the usual "common timezones" list; abbreviations are
// derived from whatever offset each zone is currently observing.
var commonZones = []string{
	"UTC",
	"Africa/Cairo", "Africa/Johannesburg", "Africa/Lagos", "Africa/Nairobi",
	"America/Anchorage", "America/Argentina/Buenos_Aires", "America/Bogota",
	"America/Chicago", "America/Denver", "America/Halifax", "America/Los_Angeles",
	"America/Mexico_City", "America/New_York", "America/Phoenix", "America/Sao_Paulo",
	"America/St_Johns", "America/Toronto", "America/Vancouver",
	"Asia/Bangkok", "Asia/Dubai", "Asia/Hong_Kong", "Asia/Jakarta", "Asia/Jerusalem",
	"Asia/Karachi", "Asia/Kolkata", "Asia/Manila", "Asia/Seoul", "Asia/Shanghai",
	"Asia/Singapore", "Asia/Tokyo",
	"Atlantic/Reykjavik",
	"Australia/Adelaide", "Australia/Brisbane", "Australia/Darwin", "Australia/Perth",
	"Australia/Sydney",
	"Europe/Amsterdam", "Europe/Athens", "Europe/Berlin", "Europe/Dublin",
	"Europe/Helsinki", "Europe/Istanbul", "Europe/Lisbon", "Europe/London",
	"Europe/Madrid", "Europe/Moscow", "Europe/Paris", "Europe/Rome",
	"Europe/Stockholm", "Europe/Warsaw",
	"Pacific/Auckland", "Pacific/Honolulu",
}

// Default is the process-wide abbreviation cache.
var Default = NewCache()

// Cache maps timezone abbreviations (CET, EST, PDT...) to locations.
// The table is rebuilt lazily when empty or older than RefreshInterval.
type Cache struct {
	mu      sync.Mutex
	zones   map[string]*time.Location
	builtAt time.Time
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{now: time.Now}
}

// Lookup resolves an abbreviation, case-insensitively.
func (c *Cache) Lookup(abbr string) (*time.Location, bool) {
	zones := c.current()
	loc, ok := zones[strings.ToUpper(abbr)]
	return loc, ok
}

// Zones returns a copy of the current table.
func (c *Cache) Zones() map[string]*time.Location {
	zones := c.current()
	out := make(map[string]*time.Location, len(zones))
	for k, v := range zones {
		out[k] = v
	}
	return out
}

func (c *Cache) current() map[string]*time.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if len(c.zones) == 0 || now.Sub(c.builtAt) > RefreshInterval {
		c.zones = build(now)
		c.builtAt = now
	}
	return c.zones
}

// build starts from an empty map so a zone never shows both its summer and
// winter abbreviation after a DST switch.
func build(now time.Time) map[string]*time.Location {
	zones := make(map[string]*time.Location, len(commonZones))
	for _, name := range commonZones {
		loc, err := time.LoadLocation(name)
		if err != nil {
			continue
		}
		abbr, _ := now.In(loc).Zone()
		if abbr == "" || !isAlpha(abbr) {
			continue
		}
		zones[strings.ToUpper(abbr)] = loc
	}
	return zones
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
