package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"eventposter/internal/domain"
)

const reactionJoinEmoji = "✅"

// HandleReactionAdd joins the event when a member reacts with ✅ on its
// message.
func (h *Handler) HandleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.Emoji.Name != reactionJoinEmoji || isSelf(s, r.UserID) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	h.notify(s, r.UserID, h.reaction(ctx, domain.KindJoin, r.GuildID, r.MessageID, r.UserID))
}

// HandleReactionRemove is the leave counterpart of HandleReactionAdd.
func (h *Handler) HandleReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if r.Emoji.Name != reactionJoinEmoji || isSelf(s, r.UserID) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	h.notify(s, r.UserID, h.reaction(ctx, domain.KindLeave, r.GuildID, r.MessageID, r.UserID))
}

// reaction applies a join or leave made through a reaction and returns
// the text to DM the user, if any. Successful joins are silent, and so is
// the hoster, who ends events through the leave button.
func (h *Handler) reaction(ctx context.Context, kind domain.Kind, guild, message, user string) string {
	guildID := snowflake(guild)
	e, ok := h.events.ByMessage(guildID, snowflake(message))
	if !ok {
		return ""
	}
	userID := snowflake(user)
	if userID == e.Hoster {
		return ""
	}
	out, err := h.interactions.Dispatch(ctx, domain.Interaction{
		Kind:     kind,
		GuildID:  guildID,
		UserID:   userID,
		HosterID: e.Hoster,
	})
	switch {
	case err != nil:
		return h.tr.T(h.locale, "errors.generic", nil)
	case kind == domain.KindJoin && !out.Rejected:
		return ""
	default:
		return h.tr.T(h.locale, out.Notice, nil)
	}
}

func (h *Handler) notify(s *discordgo.Session, userID, text string) {
	if text == "" {
		return
	}
	if err := sendDM(s, userID, text); err != nil {
		h.logger.Debug("could not DM user", "user", userID, "error", err)
	}
}

func isSelf(s *discordgo.Session, userID string) bool {
	return s.State != nil && s.State.User != nil && s.State.User.ID == userID
}
