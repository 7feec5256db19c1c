package application

import (
	"context"
	"errors"
	"strings"

	"eventposter/internal/domain"
	"eventposter/internal/domain/entities"
	"eventposter/internal/ports/output"
)

func (s *EventService) render(ctx context.Context, e *entities.Event) {
	ref, ok := e.Ref()
	if !ok {
		return
	}
	err := s.chat.EditEvent(ctx, ref, s.compose(ctx, e))
	switch {
	case errors.Is(err, domain.ErrUnavailable):
		s.logger.Debug("event message not renderable", "guild", e.GuildID, "hoster", e.Hoster)
	case err != nil:
		s.logger.Warn("failed to render event", "guild", e.GuildID, "hoster", e.Hoster, "error", err)
	}
}

// compose gathers what the chat client needs to draw e. Lookups that fail
// degrade the render instead of failing it.
func (s *EventService) compose(ctx context.Context, e *entities.Event) output.EventMessage {
	msg := output.EventMessage{
		Event:        e,
		Hoster:       s.member(ctx, e.GuildID, e.Hoster),
		Prefix:       s.chat.CommandPrefix(ctx, e.GuildID),
		Classes:      make(map[int64]string, len(e.Members)),
		Start:        e.Start,
		JoinDisabled: e.JoinDisabled(),
		Locale:       s.locale,
	}
	if e.Approver != nil {
		approver := s.member(ctx, e.GuildID, *e.Approver)
		msg.Approver = &approver
	}
	for _, m := range e.Members {
		class, ok, err := s.store.MemberField(ctx, e.GuildID, m, PlayerClassField)
		if err != nil {
			s.logger.Warn("failed to read player class", "guild", e.GuildID, "user", m, "error", err)
			continue
		}
		if ok && class != "" {
			msg.Classes[m] = class
		}
	}
	links, err := s.store.CustomLinks(ctx, e.GuildID)
	if err != nil {
		s.logger.Warn("failed to read custom links", "guild", e.GuildID, "error", err)
	}
	msg.Thumbnail = MatchThumbnail(links, e.Description)
	return msg
}

func (s *EventService) member(ctx context.Context, guildID, userID int64) output.Member {
	m, err := s.chat.Member(ctx, guildID, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrUnavailable) {
			s.logger.Warn("failed to fetch member", "guild", guildID, "user", userID, "error", err)
		}
		return output.Member{ID: userID}
	}
	return m
}

// MatchThumbnail returns the URL of the first link whose keyword appears in
// description, ignoring case.
func MatchThumbnail(links []output.CustomLink, description string) string {
	desc := strings.ToLower(description)
	for _, l := range links {
		if l.Keyword != "" && strings.Contains(desc, strings.ToLower(l.Keyword)) {
			return l.URL
		}
	}
	return ""
}
