package discord

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"eventposter/internal/ports/output"
)

const (
	embedColor = 0x5865F2

	// Discord caps embed field values and we cap the description the same.
	fieldLimit = 1024
	maxFields  = 25
)

// BuildEventEmbed draws the event message embed.
func BuildEventEmbed(msg output.EventMessage, tr output.T, locale string) *discordgo.MessageEmbed {
	e := msg.Event
	hoster := DisplayName(msg.Hoster)

	slots := ""
	if left, ok := e.SlotsLeft(); ok {
		slots = tr.TN(locale, "embed.slots_available", left, nil)
	}
	em := &discordgo.MessageEmbed{
		Color: embedColor,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    tr.T(locale, "embed.hosting", map[string]any{"Hoster": hoster}),
			IconURL: msg.Hoster.AvatarURL,
		},
		Description: tr.T(locale, "embed.body", map[string]any{
			"Description": Truncate(e.Description, fieldLimit),
			"Prefix":      msg.Prefix,
			"Hoster":      hoster,
			"Slots":       slots,
		}),
	}

	var players strings.Builder
	for i, m := range e.Members {
		class := ""
		if c := msg.Classes[m]; c != "" {
			class = " - " + c
		}
		players.WriteString(tr.T(locale, "embed.slot", map[string]any{
			"Num":    i + 1,
			"Member": Mention(m),
			"Class":  class,
		}))
	}
	attendees := tr.T(locale, "embed.attendees", nil)
	for _, page := range Pagify(players.String(), fieldLimit) {
		em.Fields = append(em.Fields, &discordgo.MessageEmbedField{Name: attendees, Value: page})
	}

	if len(e.Maybe) > 0 && len(em.Fields) < maxFields {
		maybe := make([]string, len(e.Maybe))
		for i, m := range e.Maybe {
			maybe[i] = Mention(m)
		}
		em.Fields = append(em.Fields, &discordgo.MessageEmbedField{
			Name:  tr.T(locale, "embed.maybe", nil),
			Value: Truncate(HumanizeList(maybe, tr.T(locale, "ui.and", nil)), fieldLimit),
		})
	}

	if msg.Approver != nil {
		em.Footer = &discordgo.MessageEmbedFooter{
			Text:    tr.T(locale, "embed.approved_by", map[string]any{"Approver": DisplayName(*msg.Approver)}),
			IconURL: msg.Approver.AvatarURL,
		}
	}
	if msg.Start != nil {
		em.Timestamp = msg.Start.UTC().Format(time.RFC3339)
	}
	if msg.Thumbnail != "" {
		em.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: msg.Thumbnail}
	}
	return em
}

// Mention formats a user mention.
func Mention(userID int64) string {
	return fmt.Sprintf("<@%d>", userID)
}

// DisplayName falls back to the raw id when the member could not be fetched.
func DisplayName(m output.Member) string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return strconv.FormatInt(m.ID, 10)
}

// Pagify splits text into pages of at most limit bytes, breaking after a
// newline when one falls inside the page.
func Pagify(text string, limit int) []string {
	var pages []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n') + 1
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		pages = append(pages, text[:cut])
		text = text[cut:]
	}
	if strings.TrimSpace(text) != "" {
		pages = append(pages, text)
	}
	return pages
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// HumanizeList joins items as "a, b and c".
func HumanizeList(items []string, and string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " " + and + " " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", " + and + " " + items[len(items)-1]
}
