package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	pkgdiscord "eventposter/pkg/discord"
)

// modalSubmit routes modals by their CustomID.
func (h *Handler) modalSubmit(ctx context.Context, i *discordgo.InteractionCreate) *discordgo.InteractionResponse {
	data := i.ModalSubmitData()
	values := pkgdiscord.ExtractModalData(data)
	switch data.CustomID {
	case modalCreate:
		return h.handleCreateEventModalSubmit(ctx, i, values)
	case modalEdit:
		return h.handleEditEventModalSubmit(ctx, i, values)
	default:
		// Unknown modal: ignore silently to stay robust.
		return nil
	}
}
