package application

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"eventposter/internal/domain"
	"eventposter/internal/domain/entities"
	"eventposter/internal/infrastructure/memstore"
	"eventposter/internal/ports/output"
)

var t0 = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

// fakeChat records what the services ask the chat platform to do.
type fakeChat struct {
	mu       sync.Mutex
	nextID   int64
	postedAt time.Time
	created  map[int64]time.Time
	posts    []output.EventMessage
	edits    map[int64]int
	lastEdit map[int64]output.EventMessage
	closed   map[int64]string
	gone     map[int64]bool
	members  map[int64]output.Member

	postErr  error
	editErr  error
	closeErr error
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		nextID:   5000,
		postedAt: t0,
		created:  map[int64]time.Time{},
		edits:    map[int64]int{},
		lastEdit: map[int64]output.EventMessage{},
		closed:   map[int64]string{},
		gone:     map[int64]bool{},
		members:  map[int64]output.Member{},
	}
}

func (c *fakeChat) PostEvent(_ context.Context, _, _ int64, msg output.EventMessage) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.postErr != nil {
		return 0, c.postErr
	}
	c.nextID++
	c.created[c.nextID] = c.postedAt
	c.posts = append(c.posts, msg)
	return c.nextID, nil
}

func (c *fakeChat) EditEvent(_ context.Context, ref entities.MessageRef, msg output.EventMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editErr != nil {
		return c.editErr
	}
	c.edits[ref.MessageID]++
	c.lastEdit[ref.MessageID] = msg
	return nil
}

func (c *fakeChat) CloseEvent(_ context.Context, ref entities.MessageRef, notice string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeErr != nil {
		return c.closeErr
	}
	c.closed[ref.MessageID] = notice
	return nil
}

func (c *fakeChat) MessageExists(_ context.Context, ref entities.MessageRef) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.gone[ref.MessageID], nil
}

func (c *fakeChat) Member(_ context.Context, _, userID int64) (output.Member, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.members[userID]
	if !ok {
		return output.Member{ID: userID}, domain.ErrUnavailable
	}
	return m, nil
}

func (c *fakeChat) CommandPrefix(context.Context, int64) string { return "/event " }

func (c *fakeChat) SnowflakeTime(id int64) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created[id]
}

func (c *fakeChat) editCount(messageID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.edits[messageID]
}

// keyT renders every message as its key.
type keyT struct{}

func (keyT) T(_, key string, _ map[string]any) string { return key }
func (keyT) TN(_, key string, _ int, _ map[string]any) string { return key }

// parseInHours understands "in 1 hour" and "in 3 hours" only.
func parseInHours(text string, now time.Time) (time.Time, bool) {
	switch {
	case strings.Contains(text, "in 1 hour"):
		return now.Add(time.Hour), true
	case strings.Contains(text, "in 3 hours"):
		return now.Add(3 * time.Hour), true
	}
	return time.Time{}, false
}

type fixture struct {
	events       *EventService
	interactions *InteractionService
	store        *memstore.Store
	chat         *fakeChat
	now          time.Time
	logs         *bytes.Buffer
}

const (
	guild   int64 = 42
	channel int64 = 4444
	hoster  int64 = 111
)

func newFixture() *fixture {
	return newFixtureWithParser(parseInHours)
}

func newFixtureWithParser(parse func(string, time.Time) (time.Time, bool)) *fixture {
	f := &fixture{store: memstore.New(), chat: newFakeChat(), now: t0, logs: &bytes.Buffer{}}
	f.events = NewEventService(f.store, f.chat, keyT{}, EventServiceConfig{
		Grace:  2 * time.Hour,
		Locale: "en",
		Parse:  parse,
		Logger: slog.New(slog.NewTextHandler(f.logs, nil)),
		Now:    func() time.Time { return f.now },
	})
	f.interactions = NewInteractionService(f.events, f.store, nil)
	return f
}

func intPtr(n int) *int { return &n }
