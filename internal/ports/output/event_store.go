package output

import "context"

// CustomLink is a keyword -> thumbnail URL configured for a guild.
type CustomLink struct {
	Keyword string
	URL     string
}

// EventStore persists event records and the per-member/per-guild settings
// used when rendering them. Records are opaque JSON documents.
type EventStore interface {
	// Guilds lists guilds that have at least one stored event.
	Guilds(ctx context.Context) ([]int64, error)
	GuildEvents(ctx context.Context, guildID int64) (map[int64][]byte, error)
	SaveEvent(ctx context.Context, guildID, hosterID int64, record []byte) error
	DeleteEvent(ctx context.Context, guildID, hosterID int64) error

	// MemberField returns ok=false when the field was never set.
	MemberField(ctx context.Context, guildID, userID int64, field string) (value string, ok bool, err error)
	SetMemberField(ctx context.Context, guildID, userID int64, field, value string) error

	// CustomLinks returns links in the order they were configured.
	CustomLinks(ctx context.Context, guildID int64) ([]CustomLink, error)
	SetCustomLink(ctx context.Context, guildID int64, keyword, url string) error
}
