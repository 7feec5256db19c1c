package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// NewSession opens nothing yet; it only configures the gateway intents the
// bot needs.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessageReactions
	return s, nil
}

// Bot is the Discord adapter.
type Bot struct {
	session   *discordgo.Session
	handler   *Handler
	scheduler *Scheduler
	guildID   string
	logger    *slog.Logger
}

// NewBot wires the handler and sweep scheduler to session. An empty
// guildID registers the slash command globally.
func NewBot(session *discordgo.Session, handler *Handler, scheduler *Scheduler, guildID string, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bot{
		session:   session,
		handler:   handler,
		scheduler: scheduler,
		guildID:   guildID,
		logger:    logger,
	}
	b.setupHandlers()
	return b
}

func (b *Bot) setupHandlers() {
	b.session.AddHandler(b.handler.HandleInteraction)
	b.session.AddHandler(b.handler.HandleReactionAdd)
	b.session.AddHandler(b.handler.HandleReactionRemove)
	b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("connected to gateway", "user", r.User.Username, "guilds", len(r.Guilds))
	})
}

// Run connects, registers the /event command and sweeps until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer b.session.Close()

	if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.guildID, b.handler.Command()); err != nil {
		b.logger.Warn("failed to register command", "command", commandName, "error", err)
	}

	if b.scheduler != nil {
		b.scheduler.Start()
		defer b.scheduler.Stop()
	}

	b.logger.Info("bot online, press CTRL+C to quit")
	<-ctx.Done()
	b.logger.Info("shutting down")
	return nil
}
