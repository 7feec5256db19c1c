package discord

import (
	"regexp"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"eventposter/internal/domain"
	"eventposter/internal/domain/entities"
	"eventposter/internal/ports/output"
)

var customEmojiRe = regexp.MustCompile(`^<(a?):(\w+):(\d+)>$`)

// BuildEventComponents returns the controls under an event message: the
// join, maybe and leave buttons, plus a class select when the event has
// options.
func BuildEventComponents(tr output.T, locale string, hosterID int64, joinDisabled bool, options []entities.SelectOption) []discordgo.MessageComponent {
	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    tr.T(locale, "ui.join", nil),
				Style:    discordgo.SuccessButton,
				CustomID: CustomID(domain.KindJoin, hosterID),
				Disabled: joinDisabled,
			},
			discordgo.Button{
				Label:    tr.T(locale, "ui.maybe", nil),
				Style:    discordgo.SecondaryButton,
				CustomID: CustomID(domain.KindMaybeJoin, hosterID),
			},
			discordgo.Button{
				Label:    tr.T(locale, "ui.leave", nil),
				Style:    discordgo.DangerButton,
				CustomID: CustomID(domain.KindLeave, hosterID),
			},
		}},
	}
	if len(options) == 0 {
		return rows
	}

	one := 1
	menu := discordgo.SelectMenu{
		CustomID:    CustomID(domain.KindSelectOption, hosterID),
		Placeholder: tr.T(locale, "ui.pick_class", nil),
		MinValues:   &one,
		MaxValues:   1,
	}
	for _, o := range options {
		menu.Options = append(menu.Options, discordgo.SelectMenuOption{
			Label: o.Label,
			Value: o.Label,
			Emoji: componentEmoji(o.Icon),
		})
	}
	return append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{menu}})
}

// BuildConfirmEndComponents is the Yes/No prompt shown when the hoster
// presses leave.
func BuildConfirmEndComponents(tr output.T, locale string, hosterID int64) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    tr.T(locale, "ui.confirm_yes", nil),
				Style:    discordgo.SuccessButton,
				CustomID: CustomID(domain.KindConfirmEnd, hosterID),
			},
			discordgo.Button{
				Label:    tr.T(locale, "ui.confirm_no", nil),
				Style:    discordgo.DangerButton,
				CustomID: CustomID(domain.KindCancelEnd, hosterID),
			},
		}},
	}
}

// componentEmoji accepts a unicode emoji or a custom "<:name:id>" one.
func componentEmoji(icon string) *discordgo.ComponentEmoji {
	if icon == "" {
		return nil
	}
	if m := customEmojiRe.FindStringSubmatch(icon); m != nil {
		if _, err := strconv.ParseUint(m[3], 10, 64); err == nil {
			return &discordgo.ComponentEmoji{Name: m[2], ID: m[3], Animated: m[1] == "a"}
		}
	}
	return &discordgo.ComponentEmoji{Name: icon}
}
