package discord

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"eventposter/internal/ports/input"
	"eventposter/internal/ports/output"
)

// interactionTimeout bounds the work done before answering Discord.
const interactionTimeout = 10 * time.Second

// Handler handles Discord interactions using use cases.
type Handler struct {
	events       input.EventUseCase
	interactions input.InteractionUseCase
	tr           output.T
	locale       string
	logger       *slog.Logger
	now          func() time.Time
}

// NewHandler creates a Handler. locale is used where Discord does not send
// the user's own.
func NewHandler(
	events input.EventUseCase,
	interactions input.InteractionUseCase,
	tr output.T,
	locale string,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		events:       events,
		interactions: interactions,
		tr:           tr,
		locale:       locale,
		logger:       logger,
		now:          time.Now,
	}
}

// HandleInteraction answers commands, modals and event controls.
func (h *Handler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	resp := h.respond(ctx, i)
	if resp == nil {
		return
	}
	if err := s.InteractionRespond(i.Interaction, resp, discordgo.WithContext(ctx)); err != nil {
		h.logger.Warn("failed to answer interaction", "type", i.Type.String(), "guild", i.GuildID, "error", err)
	}
}

func (h *Handler) respond(ctx context.Context, i *discordgo.InteractionCreate) *discordgo.InteractionResponse {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return ephemeral(h.translate(i, "errors.guild_only", nil))
	}
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return h.command(ctx, i)
	case discordgo.InteractionModalSubmit:
		return h.modalSubmit(ctx, i)
	case discordgo.InteractionMessageComponent:
		return h.component(ctx, i)
	default:
		return nil
	}
}

// translate uses the locale of the user's Discord client when we have it.
func (h *Handler) translate(i *discordgo.InteractionCreate, key string, data map[string]any) string {
	return h.tr.T(h.localeOf(i), key, data)
}

func (h *Handler) localeOf(i *discordgo.InteractionCreate) string {
	if i != nil && i.Locale != "" {
		return string(i.Locale)
	}
	return h.locale
}
