package input

import (
	"context"
	"time"

	"eventposter/internal/domain"
	"eventposter/internal/domain/entities"
)

// Outcome tells the adapter how to answer an interaction.
type Outcome struct {
	// Notice is an i18n key for the ephemeral reply; empty means a silent
	// acknowledgement.
	Notice string
	// ConfirmEnd asks the adapter to show the end-event confirmation.
	ConfirmEnd bool
	// Rejected is set when nothing changed because of the user's input.
	Rejected bool
}

type EventUseCase interface {
	LoadAll(ctx context.Context) (int, error)
	Load(ctx context.Context, guildID int64) (int, error)
	Create(ctx context.Context, e *entities.Event) error
	Get(guildID, hosterID int64) (*entities.Event, bool)
	ByMessage(guildID, messageID int64) (*entities.Event, bool)
	List(guildID int64) []*entities.Event
	Update(ctx context.Context, e *entities.Event) error
	Edit(ctx context.Context, guildID, hosterID int64, description string, maxSlots *int) error
	Approve(ctx context.Context, guildID, hosterID, approverID int64) error
	End(ctx context.Context, guildID, hosterID int64) error
	Remaining(guildID, hosterID int64, now time.Time) (time.Duration, error)
	Attendees(guildID, hosterID int64, includeMaybe bool) ([]int64, error)
	SetLink(ctx context.Context, guildID int64, keyword, url string) error
	Sweep(ctx context.Context, now time.Time) int
}

type InteractionUseCase interface {
	Dispatch(ctx context.Context, in domain.Interaction) (Outcome, error)
}
