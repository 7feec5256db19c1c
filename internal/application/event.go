package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"eventposter/internal/domain"
	"eventposter/internal/domain/entities"
	"eventposter/internal/ports/input"
	"eventposter/internal/ports/output"
)

// PlayerClassField is the member field holding the last class picked in an
// event select menu.
const PlayerClassField = "player_class"

var _ input.EventUseCase = (*EventService)(nil)

// ParseFunc extracts a start time from an event description.
type ParseFunc func(text string, now time.Time) (time.Time, bool)

// EventService is the registry of live events, one per hoster per guild.
//
// Every mutation runs under the event's lock as clone -> change -> persist ->
// index -> render, so a failed write leaves the tracked event untouched and
// two interactions can never both pass the capacity check.
type EventService struct {
	store  output.EventStore
	chat   output.ChatClient
	tr     output.T
	parse  ParseFunc
	grace  time.Duration
	locale string
	logger *slog.Logger
	now    func() time.Time

	locks keyedMutex

	mu     sync.RWMutex
	guilds map[int64]*guildIndex
}

type guildIndex struct {
	byHoster  map[int64]*entities.Event
	byMessage map[int64]int64
}

type EventServiceConfig struct {
	Grace  time.Duration
	Locale string
	Parse  ParseFunc
	Logger *slog.Logger
	Now    func() time.Time
}

func NewEventService(
	store output.EventStore,
	chat output.ChatClient,
	tr output.T,
	cfg EventServiceConfig,
) *EventService {
	s := &EventService{
		store:  store,
		chat:   chat,
		tr:     tr,
		parse:  cfg.Parse,
		grace:  cfg.Grace,
		locale: cfg.Locale,
		logger: cfg.Logger,
		now:    cfg.Now,
		guilds: make(map[int64]*guildIndex),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.parse == nil {
		s.parse = func(string, time.Time) (time.Time, bool) { return time.Time{}, false }
	}
	return s
}

// LoadAll restores the events of every guild known to the store.
func (s *EventService) LoadAll(ctx context.Context) (int, error) {
	guilds, err := s.store.Guilds(ctx)
	if err != nil {
		return 0, fmt.Errorf("list guilds: %w", err)
	}
	total := 0
	for _, g := range guilds {
		n, err := s.Load(ctx, g)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Load restores the persisted events of one guild. Records that fail to
// decode are logged and skipped.
func (s *EventService) Load(ctx context.Context, guildID int64) (int, error) {
	records, err := s.store.GuildEvents(ctx, guildID)
	if err != nil {
		return 0, fmt.Errorf("load guild %d events: %w", guildID, err)
	}
	n := 0
	for hoster, raw := range records {
		e, err := entities.UnmarshalRecord(raw)
		if err != nil {
			s.logger.Error("skipping unreadable event record", "guild", guildID, "hoster", hoster, "error", err)
			continue
		}
		if e.GuildID == 0 {
			e.GuildID = guildID
		}
		if e.Hoster == 0 {
			e.Hoster = hoster
		}
		s.index(e)
		n++
	}
	s.logger.Info("events restored", "guild", guildID, "count", n)
	return n, nil
}

// Create registers a new event, posts its message when a channel is set and
// persists it. A hoster can only run one event per guild.
func (s *EventService) Create(ctx context.Context, e *entities.Event) error {
	unlock := s.locks.Lock(eventKey{e.GuildID, e.Hoster})
	defer unlock()

	if _, ok := s.lookup(e.GuildID, e.Hoster); ok {
		return domain.ErrEventExists
	}
	next := e.Clone()
	if len(next.Members) == 0 {
		next.Members = []int64{next.Hoster}
	}
	s.resolveStart(next)

	if next.ChannelID != 0 && next.MessageID == 0 {
		msg := s.compose(ctx, next)
		id, err := s.chat.PostEvent(ctx, next.GuildID, next.ChannelID, msg)
		if err != nil {
			return fmt.Errorf("post event message: %w", err)
		}
		next.MessageID = id
	}
	if err := s.persist(ctx, next); err != nil {
		if ref, ok := next.Ref(); ok {
			if cerr := s.chat.CloseEvent(ctx, ref, s.tr.T(s.locale, "event.ended", nil)); cerr != nil {
				s.logger.Warn("failed to close unsaved event message", "guild", next.GuildID, "hoster", next.Hoster, "error", cerr)
			}
		}
		return err
	}
	s.index(next)
	s.logger.Info("event created", "guild", next.GuildID, "hoster", next.Hoster, "message", next.MessageID, "state", next.State())
	return nil
}

// Get returns a copy of the hoster's event.
func (s *EventService) Get(guildID, hosterID int64) (*entities.Event, bool) {
	e, ok := s.lookup(guildID, hosterID)
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// ByMessage returns a copy of the event rendered in messageID.
func (s *EventService) ByMessage(guildID, messageID int64) (*entities.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guilds[guildID]
	if !ok {
		return nil, false
	}
	hoster, ok := g.byMessage[messageID]
	if !ok {
		return nil, false
	}
	return g.byHoster[hoster].Clone(), true
}

// List returns copies of a guild's events, ordered by hoster id.
func (s *EventService) List(guildID int64) []*entities.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guilds[guildID]
	if !ok {
		return nil
	}
	out := make([]*entities.Event, 0, len(g.byHoster))
	for _, e := range g.byHoster {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hoster < out[j].Hoster })
	return out
}

// Update re-persists e as-is and refreshes the indexes.
func (s *EventService) Update(ctx context.Context, e *entities.Event) error {
	_, err := s.mutate(ctx, e.GuildID, e.Hoster, func(_ context.Context, cur *entities.Event) error {
		*cur = *e.Clone()
		return nil
	})
	return err
}

// Edit changes the description (re-parsing the start time) and capacity.
// Capacity cannot drop below the current member count.
func (s *EventService) Edit(ctx context.Context, guildID, hosterID int64, description string, maxSlots *int) error {
	_, err := s.mutate(ctx, guildID, hosterID, func(_ context.Context, e *entities.Event) error {
		if maxSlots != nil && *maxSlots > 0 && len(e.Members) > *maxSlots {
			return domain.ErrCannotReduceSlots
		}
		e.MaxSlots = maxSlots
		if description != "" && description != e.Description {
			e.Description = description
			e.ReparseStart(s.parseAt(s.now()))
		}
		return nil
	})
	return err
}

// Approve records who approved the event.
func (s *EventService) Approve(ctx context.Context, guildID, hosterID, approverID int64) error {
	_, err := s.mutate(ctx, guildID, hosterID, func(_ context.Context, e *entities.Event) error {
		e.Approver = &approverID
		return nil
	})
	return err
}

// End removes the event for good. The store delete must succeed; editing
// the message is best effort.
func (s *EventService) End(ctx context.Context, guildID, hosterID int64) error {
	unlock := s.locks.Lock(eventKey{guildID, hosterID})
	defer unlock()
	return s.endLocked(ctx, guildID, hosterID, "manual")
}

// Attendees returns who the hoster's event would mention.
func (s *EventService) Attendees(guildID, hosterID int64, includeMaybe bool) ([]int64, error) {
	e, ok := s.lookup(guildID, hosterID)
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return e.Attendees(includeMaybe), nil
}

// SetLink stores the thumbnail shown on events whose description mentions
// keyword, then redraws the events it now applies to.
func (s *EventService) SetLink(ctx context.Context, guildID int64, keyword, url string) error {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if err := s.store.SetCustomLink(ctx, guildID, keyword, url); err != nil {
		s.logger.Error("failed to save custom link", "guild", guildID, "keyword", keyword, "error", err)
		return fmt.Errorf("set custom link: %w", err)
	}
	for _, e := range s.List(guildID) {
		if strings.Contains(strings.ToLower(e.Description), keyword) {
			s.rerender(ctx, guildID, e.Hoster)
		}
	}
	s.logger.Info("custom link saved", "guild", guildID, "keyword", keyword)
	return nil
}

// Remaining is the time left before the event expires.
func (s *EventService) Remaining(guildID, hosterID int64, now time.Time) (time.Duration, error) {
	e, ok := s.lookup(guildID, hosterID)
	if !ok {
		return 0, domain.ErrEventNotFound
	}
	return e.Remaining(now, s.grace, s.chat.SnowflakeTime), nil
}

// Sweep ends every event past its grace window or whose message is gone.
// It takes the same per-event lock as interactions and re-checks the event
// after acquiring it, so running it twice, or alongside a join, is safe.
func (s *EventService) Sweep(ctx context.Context, now time.Time) int {
	ended := 0
	for _, key := range s.keys() {
		if s.sweepOne(ctx, key, now) {
			ended++
		}
	}
	if ended > 0 {
		s.logger.Info("sweep finished", "ended", ended)
	}
	return ended
}

func (s *EventService) sweepOne(ctx context.Context, key eventKey, now time.Time) bool {
	unlock := s.locks.Lock(key)
	defer unlock()

	e, ok := s.lookup(key.guild, key.hoster)
	if !ok {
		return false
	}
	reason := ""
	if e.ShouldRemove(now, s.grace, s.chat.SnowflakeTime) {
		reason = "expired"
	} else if ref, ok := e.Ref(); ok {
		exists, err := s.chat.MessageExists(ctx, ref)
		if err != nil {
			s.logger.Warn("could not check event message", "guild", key.guild, "hoster", key.hoster, "error", err)
			return false
		}
		if !exists {
			reason = "message gone"
		}
	}
	if reason == "" {
		return false
	}
	if err := s.endLocked(ctx, key.guild, key.hoster, reason); err != nil {
		s.logger.Error("sweep could not end event", "guild", key.guild, "hoster", key.hoster, "error", err)
		return false
	}
	return true
}

func (s *EventService) endLocked(ctx context.Context, guildID, hosterID int64, reason string) error {
	e, ok := s.lookup(guildID, hosterID)
	if !ok {
		return domain.ErrEventNotFound
	}
	if err := s.store.DeleteEvent(ctx, guildID, hosterID); err != nil {
		s.logger.Error("failed to delete event record", "guild", guildID, "hoster", hosterID, "error", err)
		return fmt.Errorf("delete event: %w", err)
	}
	s.unindex(e)
	if ref, ok := e.Ref(); ok {
		err := s.chat.CloseEvent(ctx, ref, s.tr.T(s.locale, "event.ended", nil))
		switch {
		case errors.Is(err, domain.ErrUnavailable):
			s.logger.Debug("event message already gone", "guild", guildID, "hoster", hosterID)
		case err != nil:
			s.logger.Warn("failed to close event message", "guild", guildID, "hoster", hosterID, "error", err)
		}
	}
	s.logger.Info("event ended", "guild", guildID, "hoster", hosterID, "reason", reason)
	return nil
}

// mutate applies fn to a copy of the event under its lock, persists the
// copy, then swaps it in and re-renders. fn may do I/O; an error from fn
// aborts without any change.
func (s *EventService) mutate(
	ctx context.Context,
	guildID, hosterID int64,
	fn func(ctx context.Context, e *entities.Event) error,
) (*entities.Event, error) {
	unlock := s.locks.Lock(eventKey{guildID, hosterID})
	defer unlock()

	cur, ok := s.lookup(guildID, hosterID)
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	next := cur.Clone()
	if err := fn(ctx, next); err != nil {
		return nil, err
	}
	s.resolveStart(next)
	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	s.index(next)
	s.render(ctx, next)
	return next.Clone(), nil
}

// rerender draws the event again after data it shows changed outside the
// record, such as a member's class.
func (s *EventService) rerender(ctx context.Context, guildID, hosterID int64) {
	unlock := s.locks.Lock(eventKey{guildID, hosterID})
	defer unlock()
	if e, ok := s.lookup(guildID, hosterID); ok {
		s.render(ctx, e)
	}
}

func (s *EventService) resolveStart(e *entities.Event) {
	e.ResolveStart(s.parseAt(s.now()))
}

func (s *EventService) parseAt(now time.Time) func(string) (time.Time, bool) {
	return func(text string) (time.Time, bool) { return s.parse(text, now) }
}

func (s *EventService) persist(ctx context.Context, e *entities.Event) error {
	raw, err := entities.MarshalRecord(e)
	if err != nil {
		return err
	}
	if err := s.store.SaveEvent(ctx, e.GuildID, e.Hoster, raw); err != nil {
		s.logger.Error("failed to persist event", "guild", e.GuildID, "hoster", e.Hoster, "error", err)
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

func (s *EventService) lookup(guildID, hosterID int64) (*entities.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guilds[guildID]
	if !ok {
		return nil, false
	}
	e, ok := g.byHoster[hosterID]
	return e, ok
}

func (s *EventService) keys() []eventKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []eventKey
	for guild, g := range s.guilds {
		for hoster := range g.byHoster {
			out = append(out, eventKey{guild, hoster})
		}
	}
	return out
}

func (s *EventService) index(e *entities.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guilds[e.GuildID]
	if !ok {
		g = &guildIndex{byHoster: map[int64]*entities.Event{}, byMessage: map[int64]int64{}}
		s.guilds[e.GuildID] = g
	}
	if old, ok := g.byHoster[e.Hoster]; ok && old.MessageID != e.MessageID {
		delete(g.byMessage, old.MessageID)
	}
	g.byHoster[e.Hoster] = e
	if e.MessageID != 0 {
		g.byMessage[e.MessageID] = e.Hoster
	}
}

func (s *EventService) unindex(e *entities.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guilds[e.GuildID]
	if !ok {
		return
	}
	delete(g.byHoster, e.Hoster)
	if e.MessageID != 0 {
		delete(g.byMessage, e.MessageID)
	}
	if len(g.byHoster) == 0 {
		delete(s.guilds, e.GuildID)
	}
}
