package entities_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventposter/internal/domain"
	"eventposter/internal/domain/entities"
)

const hoster int64 = 100

func slots(n int) *int { return &n }

func newEvent(maxSlots *int) *entities.Event {
	return &entities.Event{
		GuildID:     1,
		Hoster:      hoster,
		Members:     []int64{hoster},
		Description: "raid night",
		MaxSlots:    maxSlots,
		ChannelID:   10,
		MessageID:   20,
	}
}

func fixedAnchor(t time.Time) func(int64) time.Time {
	return func(int64) time.Time { return t }
}

func Test_Join_AppendsInOrder(t *testing.T) {
	e := newEvent(nil)

	require.NoError(t, e.Join(1))
	require.NoError(t, e.Join(2))

	assert.Equal(t, []int64{hoster, 1, 2}, e.Members)
}

func Test_Join_RejectsDuplicate(t *testing.T) {
	e := newEvent(nil)
	require.NoError(t, e.Join(1))

	err := e.Join(1)

	assert.ErrorIs(t, err, domain.ErrAlreadyMember)
	assert.Equal(t, []int64{hoster, 1}, e.Members)
}

func Test_Join_RejectsAtCapacity(t *testing.T) {
	e := newEvent(slots(2))
	require.NoError(t, e.Join(1))

	err := e.Join(2)

	assert.ErrorIs(t, err, domain.ErrEventFull)
	assert.Len(t, e.Members, 2)
}

func Test_Join_MovesOutOfMaybe(t *testing.T) {
	e := newEvent(nil)
	require.NoError(t, e.MaybeJoin(1))

	require.NoError(t, e.Join(1))

	assert.True(t, e.IsMember(1))
	assert.False(t, e.IsMaybe(1))
}

func Test_CapacityToggling(t *testing.T) {
	e := newEvent(slots(2))
	e.Members = nil

	require.NoError(t, e.Join(1))
	assert.False(t, e.JoinDisabled())
	require.NoError(t, e.Join(2))
	assert.True(t, e.JoinDisabled())
	assert.Equal(t, entities.StateFull, e.State())

	require.NoError(t, e.Leave(2))
	assert.False(t, e.JoinDisabled())
	assert.Equal(t, entities.StateOpen, e.State())
}

func Test_CapacityReenabledAfterMaybe(t *testing.T) {
	e := newEvent(slots(2))
	require.NoError(t, e.Join(1))
	require.True(t, e.JoinDisabled())

	require.NoError(t, e.MaybeJoin(1))

	assert.False(t, e.JoinDisabled())
}

func Test_ZeroMaxSlotsIsUnlimited(t *testing.T) {
	e := newEvent(slots(0))

	require.NoError(t, e.Join(1))

	assert.False(t, e.JoinDisabled())
	_, limited := e.SlotsLeft()
	assert.False(t, limited)
}

func Test_Leave_HosterGetsConfirmation(t *testing.T) {
	e := newEvent(nil)

	err := e.Leave(hoster)

	assert.ErrorIs(t, err, domain.ErrHosterLeave)
	assert.True(t, e.IsMember(hoster))
}

func Test_Leave_RejectsNonMember(t *testing.T) {
	e := newEvent(nil)
	require.NoError(t, e.MaybeJoin(1))

	err := e.Leave(1)

	assert.ErrorIs(t, err, domain.ErrNotMember)
	assert.True(t, e.IsMaybe(1))
}

func Test_MaybeJoin_IsToggle(t *testing.T) {
	for _, startAsMember := range []bool{false, true} {
		e := newEvent(nil)
		if startAsMember {
			require.NoError(t, e.Join(1))
		}

		require.NoError(t, e.MaybeJoin(1))
		assert.True(t, e.IsMaybe(1))
		assert.False(t, e.IsMember(1))
		require.NoError(t, e.MaybeJoin(1))

		assert.False(t, e.IsMaybe(1))
		assert.False(t, e.IsMember(1))
	}
}

func Test_MaybeJoin_RejectsHoster(t *testing.T) {
	e := newEvent(nil)

	err := e.MaybeJoin(hoster)

	assert.ErrorIs(t, err, domain.ErrHosterMaybe)
	assert.Empty(t, e.Maybe)
}

func Test_SelectOption_EnrollsAndChecksCapacity(t *testing.T) {
	e := newEvent(slots(2))
	e.SelectOptions = []entities.SelectOption{{Label: "Tank", Icon: "🛡️"}, {Label: "Healer", Icon: "💚"}}

	require.NoError(t, e.SelectOption(1, "Tank"))
	assert.True(t, e.IsMember(1))

	assert.ErrorIs(t, e.SelectOption(2, "Healer"), domain.ErrEventFull)
	assert.NoError(t, e.SelectOption(1, "Healer"), "members can change their pick while full")
	assert.ErrorIs(t, e.SelectOption(1, "Bard"), domain.ErrUnknownOption)
}

func Test_MembershipInvariants_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		e := newEvent(slots(1 + rng.Intn(4)))
		e.SelectOptions = []entities.SelectOption{{Label: "A"}}
		for step := 0; step < 50; step++ {
			user := int64(rng.Intn(6))
			switch rng.Intn(4) {
			case 0:
				_ = e.Join(user)
			case 1:
				_ = e.Leave(user)
			case 2:
				_ = e.MaybeJoin(user)
			case 3:
				_ = e.SelectOption(user, "A")
			}
			require.LessOrEqual(t, len(e.Members), *e.MaxSlots)
			for _, m := range e.Members {
				require.False(t, e.IsMaybe(m), "user %d in both lists", m)
			}
			seen := map[int64]bool{}
			for _, m := range e.Members {
				require.False(t, seen[m], "duplicate member %d", m)
				seen[m] = true
			}
		}
	}
}

func Test_ShouldRemove(t *testing.T) {
	now := time.Now()
	grace := 1800 * time.Second

	past := newEvent(nil)
	start := now.Add(-3600 * time.Second)
	past.Start = &start
	assert.True(t, past.ShouldRemove(now, grace, fixedAnchor(now)))

	future := newEvent(nil)
	later := now.Add(3600 * time.Second)
	future.Start = &later
	assert.False(t, future.ShouldRemove(now, grace, fixedAnchor(now)))
}

func Test_ShouldRemove_FallsBackToMessageTime(t *testing.T) {
	now := time.Now()
	e := newEvent(nil)

	assert.False(t, e.ShouldRemove(now, time.Hour, fixedAnchor(now.Add(-30*time.Minute))))
	assert.True(t, e.ShouldRemove(now, time.Hour, fixedAnchor(now.Add(-90*time.Minute))))
}

func Test_ShouldRemove_WithoutMessage(t *testing.T) {
	e := newEvent(nil)
	e.MessageID = 0

	assert.True(t, e.ShouldRemove(time.Now(), 24*time.Hour, fixedAnchor(time.Now())))
	assert.Equal(t, entities.StateDraft, e.State())
}

func Test_Remaining(t *testing.T) {
	now := time.Now()
	e := newEvent(nil)
	start := now.Add(time.Hour)
	e.Start = &start

	assert.Equal(t, 90*time.Minute, e.Remaining(now, 30*time.Minute, fixedAnchor(now)))
	assert.LessOrEqual(t, e.Remaining(now.Add(2*time.Hour), 0, fixedAnchor(now)), time.Duration(0))
}

func Test_ResolveStart_ParsesOnce(t *testing.T) {
	e := newEvent(nil)
	calls := 0
	want := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	parse := func(string) (time.Time, bool) {
		calls++
		return want, true
	}

	got1, ok1 := e.ResolveStart(parse)
	got2, ok2 := e.ResolveStart(parse)

	assert.True(t, ok1 && ok2)
	assert.Equal(t, want, got1)
	assert.Equal(t, want, got2)
	assert.Equal(t, 1, calls)
}

func Test_Attendees_NeverAliasesMembers(t *testing.T) {
	e := newEvent(nil)
	e.Members = make([]int64, 0, 8)
	e.Members = append(e.Members, hoster, 2, 3)
	e.Maybe = []int64{4}

	withMaybe := e.Attendees(true)
	withMaybe[0] = 99

	assert.Equal(t, []int64{2, 3, 4}, e.Attendees(true))
	assert.Equal(t, []int64{2, 3}, e.Attendees(false))
	assert.Equal(t, []int64{hoster, 2, 3}, e.Members)
	assert.Empty(t, newEvent(nil).Attendees(true))
}

func Test_ReparseStart_DropsCachedStart(t *testing.T) {
	e := newEvent(nil)
	first := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	_, ok := e.ResolveStart(func(string) (time.Time, bool) { return first, true })
	require.True(t, ok)

	_, ok = e.ReparseStart(func(string) (time.Time, bool) { return time.Time{}, false })

	assert.False(t, ok)
	assert.Nil(t, e.Start)
}

func Test_Clone_IsDeep(t *testing.T) {
	e := newEvent(slots(3))
	c := e.Clone()

	require.NoError(t, c.Join(1))
	*c.MaxSlots = 10

	assert.Equal(t, []int64{hoster}, e.Members)
	assert.Equal(t, 3, *e.MaxSlots)
}
