package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"eventposter/internal/domain"
	"eventposter/internal/domain/entities"
	"eventposter/internal/ports/output"
	pkgdiscord "eventposter/pkg/discord"
)

// commandPrefix is how members join from chat: "/event join <hoster>".
const commandPrefix = "/" + commandName + " "

var _ output.ChatClient = (*ChatClient)(nil)

// ChatClient implements output.ChatClient on a discordgo session.
type ChatClient struct {
	session *discordgo.Session
	tr      output.T
	logger  *slog.Logger
}

func NewChatClient(session *discordgo.Session, tr output.T, logger *slog.Logger) *ChatClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatClient{session: session, tr: tr, logger: logger}
}

func (c *ChatClient) PostEvent(ctx context.Context, _, channelID int64, msg output.EventMessage) (int64, error) {
	sent, err := c.session.ChannelMessageSendComplex(idString(channelID), &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{pkgdiscord.BuildEventEmbed(msg, c.tr, msg.Locale)},
		Components: c.components(msg),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("send event message: %w", restError(err))
	}
	id, err := strconv.ParseInt(sent.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse message id %q: %w", sent.ID, err)
	}
	return id, nil
}

func (c *ChatClient) EditEvent(ctx context.Context, ref entities.MessageRef, msg output.EventMessage) error {
	embeds := []*discordgo.MessageEmbed{pkgdiscord.BuildEventEmbed(msg, c.tr, msg.Locale)}
	components := c.components(msg)
	_, err := c.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         idString(ref.MessageID),
		Channel:    idString(ref.ChannelID),
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("edit event message: %w", restError(err))
	}
	return nil
}

// CloseEvent keeps the embed as a record of who attended.
func (c *ChatClient) CloseEvent(ctx context.Context, ref entities.MessageRef, notice string) error {
	components := []discordgo.MessageComponent{}
	_, err := c.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         idString(ref.MessageID),
		Channel:    idString(ref.ChannelID),
		Content:    &notice,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("close event message: %w", restError(err))
	}
	return nil
}

// MessageExists is false only when Discord says the message is gone. A
// forbidden fetch is returned as an error so the event is kept.
func (c *ChatClient) MessageExists(ctx context.Context, ref entities.MessageRef) (bool, error) {
	_, err := c.session.ChannelMessage(idString(ref.ChannelID), idString(ref.MessageID), discordgo.WithContext(ctx))
	if err == nil {
		return true, nil
	}
	if statusCode(err) == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("fetch event message: %w", restError(err))
}

func (c *ChatClient) Member(ctx context.Context, guildID, userID int64) (output.Member, error) {
	guild, user := idString(guildID), idString(userID)
	m, err := c.session.State.Member(guild, user)
	if err != nil {
		m, err = c.session.GuildMember(guild, user, discordgo.WithContext(ctx))
		if err != nil {
			return output.Member{ID: userID}, fmt.Errorf("fetch member: %w", restError(err))
		}
	}
	return output.Member{
		ID:          userID,
		DisplayName: resolveDisplayName(m),
		AvatarURL:   m.AvatarURL("256"),
	}, nil
}

func (c *ChatClient) CommandPrefix(context.Context, int64) string {
	return commandPrefix
}

func (c *ChatClient) SnowflakeTime(id int64) time.Time {
	t, err := discordgo.SnowflakeTimestamp(idString(id))
	if err != nil {
		c.logger.Warn("bad snowflake", "id", id, "error", err)
		return time.Time{}
	}
	return t.UTC()
}

func (c *ChatClient) components(msg output.EventMessage) []discordgo.MessageComponent {
	e := msg.Event
	return pkgdiscord.BuildEventComponents(c.tr, msg.Locale, e.Hoster, msg.JoinDisabled, e.SelectOptions)
}

// restError marks not-found and forbidden responses as domain.ErrUnavailable.
func restError(err error) error {
	switch statusCode(err) {
	case http.StatusNotFound, http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return err
}

func statusCode(err error) int {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return rest.Response.StatusCode
	}
	return 0
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// snowflake parses a Discord id, returning 0 when s is not one.
func snowflake(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
