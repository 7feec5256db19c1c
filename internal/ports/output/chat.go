package output

import (
	"context"
	"time"

	"eventposter/internal/domain/entities"
)

// Member is the display data of a guild member.
type Member struct {
	ID          int64
	DisplayName string
	AvatarURL   string
}

// EventMessage is everything needed to draw an event message.
type EventMessage struct {
	Event        *entities.Event
	Hoster       Member
	Approver     *Member
	Prefix       string
	Classes      map[int64]string
	Thumbnail    string
	Start        *time.Time
	JoinDisabled bool
	Locale       string
}

// ChatClient is the subset of the chat platform the event core needs.
// Not-found and forbidden failures are reported as domain.ErrUnavailable.
type ChatClient interface {
	PostEvent(ctx context.Context, guildID, channelID int64, msg EventMessage) (messageID int64, err error)
	EditEvent(ctx context.Context, ref entities.MessageRef, msg EventMessage) error
	// CloseEvent replaces the message content with a closing notice and
	// removes its controls.
	CloseEvent(ctx context.Context, ref entities.MessageRef, notice string) error
	MessageExists(ctx context.Context, ref entities.MessageRef) (bool, error)
	Member(ctx context.Context, guildID, userID int64) (Member, error)
	CommandPrefix(ctx context.Context, guildID int64) string
	// SnowflakeTime is the creation time embedded in a platform id.
	SnowflakeTime(id int64) time.Time
}
