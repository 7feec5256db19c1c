package discord

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"eventposter/internal/domain"
	pkgdiscord "eventposter/pkg/discord"
)

const (
	commandName = "event"

	subCreate    = "create"
	subEdit      = "edit"
	subEnd       = "end"
	subRemaining = "remaining"
	subJoin      = "join"
	subApprove   = "approve"
	subLink      = "link"
	subPing      = "ping"

	optionHoster  = "hoster"
	optionKeyword = "keyword"
	optionURL     = "url"
	optionMaybe   = "maybe"

	// keeps a ping under the 2000 character message limit
	maxPingMentions = 75
)

// Command is the /event slash command, described in the default locale.
func (h *Handler) Command() *discordgo.ApplicationCommand {
	t := func(key string) string { return h.tr.T(h.locale, key, nil) }
	hoster := []*discordgo.ApplicationCommandOption{{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        optionHoster,
		Description: t("command.option_hoster"),
		Required:    true,
	}}
	link := []*discordgo.ApplicationCommandOption{
		{Type: discordgo.ApplicationCommandOptionString, Name: optionKeyword, Description: t("command.option_keyword"), Required: true},
		{Type: discordgo.ApplicationCommandOptionString, Name: optionURL, Description: t("command.option_url"), Required: true},
	}
	ping := []*discordgo.ApplicationCommandOption{
		{Type: discordgo.ApplicationCommandOptionBoolean, Name: optionMaybe, Description: t("command.option_maybe")},
	}
	sub := func(name, key string, options []*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        name,
			Description: t(key),
			Options:     options,
		}
	}
	return &discordgo.ApplicationCommand{
		Name:        commandName,
		Description: t("command.event"),
		Options: []*discordgo.ApplicationCommandOption{
			sub(subCreate, "command.event_create", nil),
			sub(subEdit, "command.event_edit", nil),
			sub(subEnd, "command.event_end", nil),
			sub(subRemaining, "command.event_remaining", nil),
			sub(subJoin, "command.event_join", hoster),
			sub(subApprove, "command.event_approve", hoster),
			sub(subLink, "command.event_link", link),
			sub(subPing, "command.event_ping", ping),
		},
	}
}

func (h *Handler) command(ctx context.Context, i *discordgo.InteractionCreate) *discordgo.InteractionResponse {
	data := i.ApplicationCommandData()
	if data.Name != commandName || len(data.Options) == 0 {
		return nil
	}
	sub := data.Options[0]
	guildID, userID := snowflake(i.GuildID), snowflake(i.Member.User.ID)

	switch sub.Name {
	case subCreate:
		if _, ok := h.events.Get(guildID, userID); ok {
			return ephemeral(h.translate(i, "errors.event_exists", nil))
		}
		return h.eventModal(i, modalCreate, "", "", true)

	case subEdit:
		e, ok := h.events.Get(guildID, userID)
		if !ok {
			return ephemeral(h.translate(i, "event.none", nil))
		}
		slots := ""
		if e.Limited() {
			slots = strconv.Itoa(*e.MaxSlots)
		}
		return h.eventModal(i, modalEdit, e.Description, slots, false)

	case subEnd:
		return h.reply(i, h.events.End(ctx, guildID, userID), "notice.ended", "event.none")

	case subRemaining:
		left, err := h.events.Remaining(guildID, userID, h.now())
		switch {
		case errors.Is(err, domain.ErrEventNotFound):
			return ephemeral(h.translate(i, "event.none", nil))
		case left <= 0:
			return ephemeral(h.translate(i, "event.remaining_over", nil))
		}
		return ephemeral(h.translate(i, "event.remaining", map[string]any{
			"Remaining": pkgdiscord.HumanizeDuration(h.tr, h.localeOf(i), left),
		}))

	case subJoin:
		hosterID := userOption(sub, optionHoster)
		out, err := h.interactions.Dispatch(ctx, domain.Interaction{
			Kind:     domain.KindJoin,
			GuildID:  guildID,
			UserID:   userID,
			HosterID: hosterID,
		})
		if err != nil {
			return ephemeral(h.translate(i, "errors.generic", nil))
		}
		return ephemeral(h.translate(i, out.Notice, nil))

	case subApprove:
		if i.Member.Permissions&discordgo.PermissionManageEvents == 0 {
			return ephemeral(h.translate(i, "errors.not_allowed", nil))
		}
		hosterID := userOption(sub, optionHoster)
		return h.reply(i, h.events.Approve(ctx, guildID, hosterID, userID), "event.approved", "errors.event_not_found")

	case subLink:
		if i.Member.Permissions&discordgo.PermissionManageEvents == 0 {
			return ephemeral(h.translate(i, "errors.not_allowed", nil))
		}
		keyword := strings.TrimSpace(stringOption(sub, optionKeyword))
		if keyword == "" {
			return ephemeral(h.translate(i, "errors.keyword_required", nil))
		}
		url, err := pkgdiscord.ParseImageLink(stringOption(sub, optionURL))
		if err != nil {
			return ephemeral(h.translate(i, "errors.invalid_image", nil))
		}
		if err := h.events.SetLink(ctx, guildID, keyword, url); err != nil {
			return ephemeral(h.translate(i, "errors.generic", nil))
		}
		return ephemeral(h.translate(i, "event.link_saved", map[string]any{"Keyword": keyword}))

	case subPing:
		ids, err := h.events.Attendees(guildID, userID, boolOption(sub, optionMaybe))
		switch {
		case errors.Is(err, domain.ErrEventNotFound):
			return ephemeral(h.translate(i, "event.none", nil))
		case len(ids) == 0:
			return ephemeral(h.translate(i, "event.nobody", nil))
		}
		ids = ids[:min(len(ids), maxPingMentions)]
		mentions := make([]string, len(ids))
		for n, id := range ids {
			mentions[n] = pkgdiscord.Mention(id)
		}
		return announce(h.translate(i, "event.ping", map[string]any{
			"Hoster":   pkgdiscord.Mention(userID),
			"Mentions": pkgdiscord.HumanizeList(mentions, h.translate(i, "ui.and", nil)),
		}), ids)

	default:
		return nil
	}
}

// reply answers with okKey, missingKey when there is no such event, or the
// message matching err.
func (h *Handler) reply(i *discordgo.InteractionCreate, err error, okKey, missingKey string) *discordgo.InteractionResponse {
	switch {
	case err == nil:
		return ephemeral(h.translate(i, okKey, nil))
	case errors.Is(err, domain.ErrEventNotFound):
		return ephemeral(h.translate(i, missingKey, nil))
	default:
		return ephemeral(h.translate(i, pkgdiscord.ErrorKey(err), nil))
	}
}

func stringOption(sub *discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range sub.Options {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionString {
			return o.StringValue()
		}
	}
	return ""
}

func boolOption(sub *discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	for _, o := range sub.Options {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionBoolean {
			return o.BoolValue()
		}
	}
	return false
}

func userOption(sub *discordgo.ApplicationCommandInteractionDataOption, name string) int64 {
	for _, o := range sub.Options {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionUser {
			return snowflake(o.UserValue(nil).ID)
		}
	}
	return 0
}
