package discord

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventposter/internal/application"
	"eventposter/internal/domain"
	"eventposter/internal/domain/entities"
	"eventposter/internal/infrastructure/i18n"
	"eventposter/internal/infrastructure/memstore"
	"eventposter/internal/ports/output"
)

var now = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

// stubChat accepts every call and numbers posted messages.
type stubChat struct {
	next atomic.Int64
}

func (c *stubChat) PostEvent(context.Context, int64, int64, output.EventMessage) (int64, error) {
	return 9000 + c.next.Add(1), nil
}
func (c *stubChat) EditEvent(context.Context, entities.MessageRef, output.EventMessage) error {
	return nil
}
func (c *stubChat) CloseEvent(context.Context, entities.MessageRef, string) error { return nil }
func (c *stubChat) MessageExists(context.Context, entities.MessageRef) (bool, error) {
	return true, nil
}
func (c *stubChat) Member(_ context.Context, _, userID int64) (output.Member, error) {
	return output.Member{ID: userID}, nil
}
func (c *stubChat) CommandPrefix(context.Context, int64) string { return commandPrefix }
func (c *stubChat) SnowflakeTime(int64) time.Time { return now }

func newTestHandler(t *testing.T) (*Handler, *application.EventService) {
	t.Helper()
	h, events, _ := newTestHandlerWithStore(t)
	return h, events
}

func newTestHandlerWithStore(t *testing.T) (*Handler, *application.EventService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	tr := i18n.NewTranslator("en", nil)
	events := application.NewEventService(store, &stubChat{}, tr, application.EventServiceConfig{
		Grace: 2 * time.Hour,
		Now:   func() time.Time { return now },
	})
	h := NewHandler(events, application.NewInteractionService(events, store, nil), tr, "en", nil)
	h.now = func() time.Time { return now }
	return h, events, store
}

func member(id string) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: id}}
}

func componentInteraction(customID, userID string, values ...string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionMessageComponent,
		GuildID: "42",
		Member:  member(userID),
		Data:    discordgo.MessageComponentInteractionData{CustomID: customID, Values: values},
	}}
}

func commandInteraction(userID string, sub *discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "42",
		ChannelID: "4444",
		Member:    member(userID),
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    commandName,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{sub},
		},
	}}
}

func modalInteraction(customID, userID string, values map[string]string) *discordgo.InteractionCreate {
	var rows []discordgo.MessageComponent
	for id, v := range values {
		rows = append(rows, &discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: id, Value: v},
		}})
	}
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionModalSubmit,
		GuildID:   "42",
		ChannelID: "4444",
		Member:    member(userID),
		Data:      discordgo.ModalSubmitInteractionData{CustomID: customID, Components: rows},
	}}
}

func hostEvent(t *testing.T, events *application.EventService, opts ...entities.SelectOption) {
	t.Helper()
	require.NoError(t, events.Create(context.Background(), &entities.Event{
		GuildID: 42, Hoster: 111, ChannelID: 4444, Description: "Raid", MaxSlots: intPtr(2), SelectOptions: opts,
	}))
}

func intPtr(n int) *int { return &n }

func Test_Component_Join(t *testing.T) {
	h, events := newTestHandler(t)
	hostEvent(t, events)

	resp := h.respond(context.Background(), componentInteraction("join-111", "2"))

	require.NotNil(t, resp)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	assert.Equal(t, "You have joined this event.", resp.Data.Content)

	resp = h.respond(context.Background(), componentInteraction("join-111", "3"))
	assert.Equal(t, "This event is at the maximum number of members.", resp.Data.Content)
}

func Test_Component_SelectClass(t *testing.T) {
	h, events := newTestHandler(t)
	hostEvent(t, events, entities.SelectOption{Label: "Tank"})

	resp := h.respond(context.Background(), componentInteraction("playerclass-111", "2", "Tank"))

	assert.Equal(t, "Your class has been saved.", resp.Data.Content)
	e, _ := events.Get(42, 111)
	assert.Equal(t, []int64{111, 2}, e.Members)
	assert.Nil(t, h.respond(context.Background(), componentInteraction("playerclass-111", "2")))
}

func Test_Component_HosterLeaveAsksToConfirm(t *testing.T) {
	h, events := newTestHandler(t)
	hostEvent(t, events)

	resp := h.respond(context.Background(), componentInteraction("leave-111", "111"))

	assert.Equal(t, "Are you sure you want to end your event?", resp.Data.Content)
	require.Len(t, resp.Data.Components, 1)
	buttons := resp.Data.Components[0].(discordgo.ActionsRow).Components
	assert.Equal(t, "endconfirm-111", buttons[0].(discordgo.Button).CustomID)

	resp = h.respond(context.Background(), componentInteraction("endconfirm-111", "111"))
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	assert.Equal(t, "Your event has now ended.", resp.Data.Content)
	assert.Empty(t, resp.Data.Components)
	_, ok := events.Get(42, 111)
	assert.False(t, ok)
}

func Test_Component_IgnoresForeignIDs(t *testing.T) {
	h, _ := newTestHandler(t)

	assert.Nil(t, h.respond(context.Background(), componentInteraction("btn_join", "2")))
}

func Test_Respond_OutsideGuild(t *testing.T) {
	h, _ := newTestHandler(t)
	i := componentInteraction("join-111", "2")
	i.GuildID = ""

	resp := h.respond(context.Background(), i)

	assert.Equal(t, "Events only work inside a server.", resp.Data.Content)
}

func Test_Command_CreateFlow(t *testing.T) {
	h, events := newTestHandler(t)
	ctx := context.Background()

	resp := h.respond(ctx, commandInteraction("111", &discordgo.ApplicationCommandInteractionDataOption{Name: subCreate}))
	require.Equal(t, discordgo.InteractionResponseModal, resp.Type)
	assert.Equal(t, modalCreate, resp.Data.CustomID)
	assert.Len(t, resp.Data.Components, 3)

	resp = h.respond(ctx, modalInteraction(modalCreate, "111", map[string]string{
		fieldDescription: "Dungeon run",
		fieldSlots:       "4",
		fieldOptions:     "Tank=🛡️\nHealer",
	}))
	assert.Equal(t, "Your event has been posted.", resp.Data.Content)

	e, ok := events.Get(42, 111)
	require.True(t, ok)
	assert.Equal(t, "Dungeon run", e.Description)
	assert.Equal(t, 4, *e.MaxSlots)
	assert.Equal(t, int64(4444), e.ChannelID)
	assert.NotZero(t, e.MessageID)
	assert.Len(t, e.SelectOptions, 2)

	resp = h.respond(ctx, commandInteraction("111", &discordgo.ApplicationCommandInteractionDataOption{Name: subCreate}))
	assert.Contains(t, resp.Data.Content, "already hosting")
}

func Test_Modal_RejectsBadInput(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := h.respond(context.Background(), modalInteraction(modalCreate, "111", map[string]string{fieldDescription: "x", fieldSlots: "many"}))
	assert.Contains(t, resp.Data.Content, "Max slots must be")

	resp = h.respond(context.Background(), modalInteraction(modalCreate, "111", map[string]string{fieldDescription: " "}))
	assert.Equal(t, "An event needs a description.", resp.Data.Content)
}

func Test_Command_EditFlow(t *testing.T) {
	h, events := newTestHandler(t)
	ctx := context.Background()
	sub := &discordgo.ApplicationCommandInteractionDataOption{Name: subEdit}

	resp := h.respond(ctx, commandInteraction("111", sub))
	assert.Equal(t, "You are not hosting any event.", resp.Data.Content)

	hostEvent(t, events)
	resp = h.respond(ctx, commandInteraction("111", sub))
	require.Equal(t, discordgo.InteractionResponseModal, resp.Type)
	assert.Len(t, resp.Data.Components, 2)
	slots := resp.Data.Components[1].(discordgo.ActionsRow).Components[0].(discordgo.TextInput)
	assert.Equal(t, "2", slots.Value)

	resp = h.respond(ctx, modalInteraction(modalEdit, "111", map[string]string{fieldDescription: "Raid", fieldSlots: "10"}))
	assert.Equal(t, "Event updated.", resp.Data.Content)
	e, _ := events.Get(42, 111)
	assert.Equal(t, 10, *e.MaxSlots)
}

func Test_Command_RemainingAndEnd(t *testing.T) {
	h, events := newTestHandler(t)
	ctx := context.Background()
	remaining := &discordgo.ApplicationCommandInteractionDataOption{Name: subRemaining}
	end := &discordgo.ApplicationCommandInteractionDataOption{Name: subEnd}

	assert.Equal(t, "You are not hosting any event.", h.respond(ctx, commandInteraction("111", remaining)).Data.Content)

	hostEvent(t, events)
	h.now = func() time.Time { return now.Add(30 * time.Minute) }
	resp := h.respond(ctx, commandInteraction("111", remaining))
	assert.Equal(t, "Your event ends in 1 hour, 30 minutes.", resp.Data.Content)

	resp = h.respond(ctx, commandInteraction("111", end))
	assert.Equal(t, "Your event has now ended.", resp.Data.Content)
	assert.Equal(t, "You are not hosting any event.", h.respond(ctx, commandInteraction("111", end)).Data.Content)
}

func Test_Command_JoinAndApprove(t *testing.T) {
	h, events := newTestHandler(t)
	hostEvent(t, events)
	ctx := context.Background()
	hosterOpt := []*discordgo.ApplicationCommandInteractionDataOption{{
		Name: optionHoster, Type: discordgo.ApplicationCommandOptionUser, Value: "111",
	}}

	resp := h.respond(ctx, commandInteraction("2", &discordgo.ApplicationCommandInteractionDataOption{Name: subJoin, Options: hosterOpt}))
	assert.Equal(t, "You have joined this event.", resp.Data.Content)

	approve := &discordgo.ApplicationCommandInteractionDataOption{Name: subApprove, Options: hosterOpt}
	resp = h.respond(ctx, commandInteraction("77", approve))
	assert.Contains(t, resp.Data.Content, "Manage Events")

	i := commandInteraction("77", approve)
	i.Member.Permissions = discordgo.PermissionManageEvents
	resp = h.respond(ctx, i)
	assert.Equal(t, "Event approved.", resp.Data.Content)
	e, _ := events.Get(42, 111)
	require.NotNil(t, e.Approver)
	assert.Equal(t, int64(77), *e.Approver)
}

func Test_Command_Link(t *testing.T) {
	h, _, store := newTestHandlerWithStore(t)
	ctx := context.Background()
	link := func(keyword, url string) *discordgo.InteractionCreate {
		i := commandInteraction("77", &discordgo.ApplicationCommandInteractionDataOption{
			Name: subLink,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: optionKeyword, Type: discordgo.ApplicationCommandOptionString, Value: keyword},
				{Name: optionURL, Type: discordgo.ApplicationCommandOptionString, Value: url},
			},
		})
		i.Member.Permissions = discordgo.PermissionManageEvents
		return i
	}

	denied := link("raid", "https://img.example/raid.png")
	denied.Member.Permissions = 0
	assert.Contains(t, h.respond(ctx, denied).Data.Content, "Manage Events")

	assert.Equal(t, "That's not a valid image link.", h.respond(ctx, link("raid", "https://example.com/page")).Data.Content)
	assert.Equal(t, "A keyword is required.", h.respond(ctx, link("  ", "https://img.example/raid.png")).Data.Content)

	resp := h.respond(ctx, link("Raid", "https://img.example/raid.PNG"))
	assert.Equal(t, "Events mentioning Raid will now show this picture.", resp.Data.Content)

	links, err := store.CustomLinks(ctx, 42)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, output.CustomLink{Keyword: "raid", URL: "https://img.example/raid.PNG"}, links[0])
	assert.Equal(t, "https://img.example/raid.PNG", application.MatchThumbnail(links, "Weekly RAID night"))
}

func Test_Command_Ping(t *testing.T) {
	h, events := newTestHandler(t)
	ctx := context.Background()
	ping := func(maybe bool) *discordgo.InteractionCreate {
		return commandInteraction("111", &discordgo.ApplicationCommandInteractionDataOption{
			Name: subPing,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: optionMaybe, Type: discordgo.ApplicationCommandOptionBoolean, Value: maybe},
			},
		})
	}

	assert.Equal(t, "You are not hosting any event.", h.respond(ctx, ping(false)).Data.Content)

	require.NoError(t, events.Create(ctx, &entities.Event{
		GuildID: 42, Hoster: 111, ChannelID: 4444, Description: "Raid",
		Members: []int64{111, 2, 3}, Maybe: []int64{4},
	}))

	resp := h.respond(ctx, ping(false))
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Zero(t, resp.Data.Flags)
	assert.Equal(t, "<@111> is calling <@2> and <@3>.", resp.Data.Content)
	assert.Equal(t, []string{"2", "3"}, resp.Data.AllowedMentions.Users)

	resp = h.respond(ctx, ping(true))
	assert.Equal(t, "<@111> is calling <@2>, <@3>, and <@4>.", resp.Data.Content)
	assert.Equal(t, []string{"2", "3", "4"}, resp.Data.AllowedMentions.Users)

	e, _ := events.Get(42, 111)
	assert.Equal(t, []int64{111, 2, 3}, e.Members)
}

func Test_Command_Definition(t *testing.T) {
	h, _ := newTestHandler(t)

	cmd := h.Command()

	assert.Equal(t, "event", cmd.Name)
	require.Len(t, cmd.Options, 8)
	for _, o := range cmd.Options {
		assert.NotEmpty(t, o.Description, o.Name)
		assert.LessOrEqual(t, len(o.Description), 100, o.Name)
	}
}

func Test_Reaction(t *testing.T) {
	h, events := newTestHandler(t)
	hostEvent(t, events)
	e, _ := events.Get(42, 111)
	msg := idString(e.MessageID)
	ctx := context.Background()

	assert.Empty(t, h.reaction(ctx, domain.KindJoin, "42", msg, "2"))
	assert.Equal(t, "You have already registered for this event.", h.reaction(ctx, domain.KindJoin, "42", msg, "2"))
	assert.Equal(t, "This event is at the maximum number of members.", h.reaction(ctx, domain.KindJoin, "42", msg, "3"))
	assert.Empty(t, h.reaction(ctx, domain.KindLeave, "42", msg, "111"))
	assert.Equal(t, "You have left this event.", h.reaction(ctx, domain.KindLeave, "42", msg, "2"))
	assert.Empty(t, h.reaction(ctx, domain.KindJoin, "42", "1", "2"))
}

func Test_restError(t *testing.T) {
	rest := func(code int) error {
		return &discordgo.RESTError{Response: &http.Response{StatusCode: code}}
	}

	assert.ErrorIs(t, restError(rest(http.StatusNotFound)), domain.ErrUnavailable)
	assert.ErrorIs(t, restError(rest(http.StatusForbidden)), domain.ErrUnavailable)
	assert.NotErrorIs(t, restError(rest(http.StatusInternalServerError)), domain.ErrUnavailable)
	assert.NotErrorIs(t, restError(errors.New("dial tcp: timeout")), domain.ErrUnavailable)
	assert.Equal(t, http.StatusNotFound, statusCode(rest(http.StatusNotFound)))
}

func Test_snowflake(t *testing.T) {
	assert.Equal(t, int64(175928847299117063), snowflake("175928847299117063"))
	assert.Zero(t, snowflake(""))
	assert.Zero(t, snowflake("abc"))
	assert.Equal(t, "42", idString(42))
}

func Test_ChatClient_SnowflakeTime(t *testing.T) {
	c := NewChatClient(nil, nil, nil)

	got := c.SnowflakeTime(175928847299117063)

	assert.Equal(t, time.Date(2016, 4, 30, 11, 18, 25, 796000000, time.UTC), got)
}
