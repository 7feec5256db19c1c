package discord

import (
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"eventposter/internal/domain/entities"
)

// maxOptions is the most options a select menu accepts.
const maxOptions = 25

var ErrInvalidSlots = errors.New("invalid max slots")

// ExtractModalData returns the text input values of a modal keyed by their
// custom id.
func ExtractModalData(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, rc := range row.Components {
			if input, ok := rc.(*discordgo.TextInput); ok {
				values[input.CustomID] = strings.TrimSpace(input.Value)
			}
		}
	}
	return values
}

// ParseSlots reads the max slots input. Empty or zero means no limit.
func ParseSlots(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, ErrInvalidSlots
	}
	if n == 0 {
		return nil, nil
	}
	return &n, nil
}

// ParseOptions reads one class option per line, as "Label" or
// "Label=icon". Duplicate labels keep their first line.
func ParseOptions(text string) []entities.SelectOption {
	var out []entities.SelectOption
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		label, icon, _ := strings.Cut(line, "=")
		label, icon = strings.TrimSpace(label), strings.TrimSpace(icon)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, entities.SelectOption{Label: Truncate(label, 100), Icon: icon})
		if len(out) == maxOptions {
			break
		}
	}
	return out
}
