package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"eventposter/internal/domain"
	pkgdiscord "eventposter/pkg/discord"
)

// component handles the buttons and class select of an event message, and
// the confirm-end prompt.
func (h *Handler) component(ctx context.Context, i *discordgo.InteractionCreate) *discordgo.InteractionResponse {
	data := i.MessageComponentData()
	kind, hosterID, ok := pkgdiscord.ParseCustomID(data.CustomID)
	if !ok {
		h.logger.Debug("ignoring unknown component", "custom_id", data.CustomID)
		return nil
	}
	in := domain.Interaction{
		Kind:     kind,
		GuildID:  snowflake(i.GuildID),
		UserID:   snowflake(i.Member.User.ID),
		HosterID: hosterID,
	}
	if kind == domain.KindSelectOption {
		if len(data.Values) == 0 {
			return nil
		}
		in.Option = data.Values[0]
	}

	out, err := h.interactions.Dispatch(ctx, in)
	if err != nil {
		return ephemeral(h.translate(i, "errors.generic", nil))
	}
	text := h.translate(i, out.Notice, nil)
	switch {
	case out.ConfirmEnd:
		resp := ephemeral(text)
		resp.Data.Components = pkgdiscord.BuildConfirmEndComponents(h.tr, h.localeOf(i), hosterID)
		return resp
	case kind == domain.KindConfirmEnd || kind == domain.KindCancelEnd:
		return updateMessage(text)
	default:
		return ephemeral(text)
	}
}
