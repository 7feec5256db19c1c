package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"eventposter/internal/domain"
	"eventposter/internal/domain/entities"
	"eventposter/internal/ports/input"
	"eventposter/internal/ports/output"
)

var _ input.InteractionUseCase = (*InteractionService)(nil)

// Notice keys returned in input.Outcome.
const (
	NoticeJoined       = "notice.joined"
	NoticeLeft         = "notice.left"
	NoticeMaybeOn      = "notice.maybe_on"
	NoticeMaybeOff     = "notice.maybe_off"
	NoticeClassPicked  = "notice.class_picked"
	NoticeConfirmEnd   = "notice.confirm_end"
	NoticeEnded        = "notice.ended"
	NoticeKept         = "notice.kept"
	NoticeEventMissing = "errors.event_not_found"
	NoticeNotHoster    = "errors.not_hoster"
)

// InteractionService routes button and select interactions to the event
// registry.
type InteractionService struct {
	events *EventService
	store  output.EventStore
	logger *slog.Logger
}

func NewInteractionService(events *EventService, store output.EventStore, logger *slog.Logger) *InteractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InteractionService{events: events, store: store, logger: logger}
}

// Dispatch applies one interaction. User-input rejections come back as a
// notice with a nil error; a returned error means state could not be saved.
func (s *InteractionService) Dispatch(ctx context.Context, in domain.Interaction) (input.Outcome, error) {
	log := s.logger.With(
		"interaction_id", uuid.NewString(),
		"kind", in.Kind.String(),
		"guild", in.GuildID,
		"hoster", in.HosterID,
		"user", in.UserID,
	)

	out, err := s.dispatch(ctx, in)
	switch {
	case err == nil:
		log.Debug("interaction applied", "notice", out.Notice)
		return out, nil
	case domain.IsRejection(err):
		if errors.Is(err, domain.ErrHosterLeave) {
			log.Debug("hoster asked to leave, confirming end")
			return input.Outcome{Notice: NoticeConfirmEnd, ConfirmEnd: true}, nil
		}
		log.Debug("interaction rejected", "reason", domain.Code(err))
		return input.Outcome{Notice: "notice." + domain.Code(err), Rejected: true}, nil
	case errors.Is(err, domain.ErrEventNotFound):
		log.Debug("interaction on unknown event")
		return input.Outcome{Notice: NoticeEventMissing, Rejected: true}, nil
	case errors.Is(err, domain.ErrNotHoster):
		log.Debug("non-hoster tried to end event")
		return input.Outcome{Notice: NoticeNotHoster, Rejected: true}, nil
	default:
		log.Error("interaction failed", "error", err)
		return input.Outcome{}, err
	}
}

func (s *InteractionService) dispatch(ctx context.Context, in domain.Interaction) (input.Outcome, error) {
	switch in.Kind {
	case domain.KindJoin:
		_, err := s.events.mutate(ctx, in.GuildID, in.HosterID, func(_ context.Context, e *entities.Event) error {
			return e.Join(in.UserID)
		})
		return input.Outcome{Notice: NoticeJoined}, err

	case domain.KindLeave:
		_, err := s.events.mutate(ctx, in.GuildID, in.HosterID, func(_ context.Context, e *entities.Event) error {
			return e.Leave(in.UserID)
		})
		return input.Outcome{Notice: NoticeLeft}, err

	case domain.KindMaybeJoin:
		on := false
		_, err := s.events.mutate(ctx, in.GuildID, in.HosterID, func(_ context.Context, e *entities.Event) error {
			if err := e.MaybeJoin(in.UserID); err != nil {
				return err
			}
			on = e.IsMaybe(in.UserID)
			return nil
		})
		if on {
			return input.Outcome{Notice: NoticeMaybeOn}, err
		}
		return input.Outcome{Notice: NoticeMaybeOff}, err

	case domain.KindSelectOption:
		// The class is written only after the enrolment is saved.
		if _, err := s.events.mutate(ctx, in.GuildID, in.HosterID, func(_ context.Context, e *entities.Event) error {
			return e.SelectOption(in.UserID, in.Option)
		}); err != nil {
			return input.Outcome{}, err
		}
		if err := s.store.SetMemberField(ctx, in.GuildID, in.UserID, PlayerClassField, in.Option); err != nil {
			return input.Outcome{}, err
		}
		s.events.rerender(ctx, in.GuildID, in.HosterID)
		return input.Outcome{Notice: NoticeClassPicked}, nil

	case domain.KindConfirmEnd:
		if in.UserID != in.HosterID {
			return input.Outcome{}, domain.ErrNotHoster
		}
		if err := s.events.End(ctx, in.GuildID, in.HosterID); err != nil {
			return input.Outcome{}, err
		}
		return input.Outcome{Notice: NoticeEnded}, nil

	case domain.KindCancelEnd:
		return input.Outcome{Notice: NoticeKept}, nil

	default:
		return input.Outcome{}, errors.New("unknown interaction kind")
	}
}
