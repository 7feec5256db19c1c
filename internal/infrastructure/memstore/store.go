// Package memstore is an in-process output.EventStore, used by tests and by
// the bot's --memory mode.
package memstore

import (
	"context"
	"slices"
	"sync"

	"eventposter/internal/ports/output"
)

var _ output.EventStore = (*Store)(nil)

type memberKey struct {
	guild, user int64
	field       string
}

type Store struct {
	mu      sync.Mutex
	events  map[int64]map[int64][]byte
	members map[memberKey]string
	links   map[int64][]output.CustomLink

	// FailSaves makes SaveEvent and SetMemberField fail with this error.
	FailSaves error
	// FailEventSaves makes only SaveEvent fail.
	FailEventSaves error
}

func New() *Store {
	return &Store{
		events:  make(map[int64]map[int64][]byte),
		members: make(map[memberKey]string),
		links:   make(map[int64][]output.CustomLink),
	}
}

func (s *Store) Guilds(context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.events))
	for g := range s.events {
		out = append(out, g)
	}
	slices.Sort(out)
	return out, nil
}

func (s *Store) GuildEvents(_ context.Context, guildID int64) (map[int64][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64][]byte, len(s.events[guildID]))
	for h, raw := range s.events[guildID] {
		out[h] = slices.Clone(raw)
	}
	return out, nil
}

func (s *Store) SaveEvent(_ context.Context, guildID, hosterID int64, record []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves != nil {
		return s.FailSaves
	}
	if s.FailEventSaves != nil {
		return s.FailEventSaves
	}
	g, ok := s.events[guildID]
	if !ok {
		g = make(map[int64][]byte)
		s.events[guildID] = g
	}
	g[hosterID] = slices.Clone(record)
	return nil
}

func (s *Store) DeleteEvent(_ context.Context, guildID, hosterID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events[guildID], hosterID)
	if len(s.events[guildID]) == 0 {
		delete(s.events, guildID)
	}
	return nil
}

// Event returns the raw stored record, for assertions.
func (s *Store) Event(guildID, hosterID int64) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.events[guildID][hosterID]
	return raw, ok
}

func (s *Store) MemberField(_ context.Context, guildID, userID int64, field string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.members[memberKey{guildID, userID, field}]
	return v, ok, nil
}

func (s *Store) SetMemberField(_ context.Context, guildID, userID int64, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves != nil {
		return s.FailSaves
	}
	s.members[memberKey{guildID, userID, field}] = value
	return nil
}

func (s *Store) CustomLinks(_ context.Context, guildID int64) ([]output.CustomLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.links[guildID]), nil
}

func (s *Store) SetCustomLink(_ context.Context, guildID int64, keyword, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	links := s.links[guildID]
	for i := range links {
		if links[i].Keyword == keyword {
			links[i].URL = url
			return nil
		}
	}
	s.links[guildID] = append(links, output.CustomLink{Keyword: keyword, URL: url})
	return nil
}
