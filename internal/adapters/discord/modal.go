package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"eventposter/internal/domain/entities"
	pkgdiscord "eventposter/pkg/discord"
)

const (
	modalCreate = "event_create"
	modalEdit   = "event_edit"

	fieldDescription = "description"
	fieldSlots       = "slots"
	fieldOptions     = "options"

	descriptionMaxLength = 1024
)

func (h *Handler) eventModal(i *discordgo.InteractionCreate, customID, description, slots string, withOptions bool) *discordgo.InteractionResponse {
	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:  fieldDescription,
				Label:     h.translate(i, "command.modal_description", nil),
				Style:     discordgo.TextInputParagraph,
				Required:  true,
				MaxLength: descriptionMaxLength,
				Value:     description,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:  fieldSlots,
				Label:     h.translate(i, "command.modal_slots", nil),
				Style:     discordgo.TextInputShort,
				Required:  false,
				MaxLength: 4,
				Value:     slots,
			},
		}},
	}
	if withOptions {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    fieldOptions,
				Label:       h.translate(i, "command.modal_options", nil),
				Style:       discordgo.TextInputParagraph,
				Required:    false,
				Placeholder: "Tank=🛡️\nHealer=💚\nDPS=⚔️",
			},
		}})
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      h.translate(i, "command.modal_title", nil),
			Components: rows,
		},
	}
}

func (h *Handler) handleCreateEventModalSubmit(ctx context.Context, i *discordgo.InteractionCreate, values map[string]string) *discordgo.InteractionResponse {
	slots, err := pkgdiscord.ParseSlots(values[fieldSlots])
	if err != nil {
		return ephemeral(h.translate(i, "errors.invalid_slots", nil))
	}
	hosterID := snowflake(i.Member.User.ID)
	e := &entities.Event{
		GuildID:       snowflake(i.GuildID),
		Hoster:        hosterID,
		Members:       []int64{hosterID},
		Description:   values[fieldDescription],
		MaxSlots:      slots,
		ChannelID:     snowflake(i.ChannelID),
		SelectOptions: pkgdiscord.ParseOptions(values[fieldOptions]),
	}
	if e.Description == "" {
		return ephemeral(h.translate(i, "errors.description_required", nil))
	}
	if err := h.events.Create(ctx, e); err != nil {
		return ephemeral(h.translate(i, pkgdiscord.ErrorKey(err), nil))
	}
	return ephemeral(h.translate(i, "event.created", nil))
}

func (h *Handler) handleEditEventModalSubmit(ctx context.Context, i *discordgo.InteractionCreate, values map[string]string) *discordgo.InteractionResponse {
	slots, err := pkgdiscord.ParseSlots(values[fieldSlots])
	if err != nil {
		return ephemeral(h.translate(i, "errors.invalid_slots", nil))
	}
	err = h.events.Edit(ctx, snowflake(i.GuildID), snowflake(i.Member.User.ID), values[fieldDescription], slots)
	return h.reply(i, err, "event.edited", "event.none")
}
