package entities_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventposter/internal/domain/entities"
)

const fullRecord = `{
	"hoster": 111,
	"members": [111, 222, 333],
	"event": "Raid in 2 hours",
	"max_slots": 5,
	"approver": 999,
	"message": 5555,
	"channel": 4444,
	"guild": 42,
	"maybe": [777],
	"start": 1767225600,
	"select_options": {"Tank": "🛡️", "Healer": "💚", "DPS": "⚔️"}
}`

const sparseRecord = `{
	"hoster": 111,
	"members": [],
	"event": "whenever",
	"max_slots": null,
	"approver": null,
	"message": null,
	"channel": null,
	"guild": 42,
	"maybe": [],
	"start": null,
	"select_options": {}
}`

func Test_Record_RoundTrip(t *testing.T) {
	for _, raw := range []string{fullRecord, sparseRecord} {
		e, err := entities.UnmarshalRecord([]byte(raw))
		require.NoError(t, err)

		out, err := entities.MarshalRecord(e)
		require.NoError(t, err)

		assert.JSONEq(t, raw, string(out))
	}
}

func Test_Record_SelectOptionsKeepOrder(t *testing.T) {
	e, err := entities.UnmarshalRecord([]byte(fullRecord))
	require.NoError(t, err)

	require.Len(t, e.SelectOptions, 3)
	assert.Equal(t, "Tank", e.SelectOptions[0].Label)
	assert.Equal(t, "DPS", e.SelectOptions[2].Label)

	out, err := entities.MarshalRecord(e)
	require.NoError(t, err)
	s := string(out)
	assert.Less(t, strings.Index(s, `"Tank"`), strings.Index(s, `"Healer"`))
	assert.Less(t, strings.Index(s, `"Healer"`), strings.Index(s, `"DPS"`))
}

func Test_Record_LegacyMemberTuples(t *testing.T) {
	raw := `{"hoster": 1, "members": [[1, "Tank"], 2, [3, null]], "event": "x", "guild": 9, "maybe": [], "select_options": {}}`

	e, err := entities.UnmarshalRecord([]byte(raw))

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, e.Members)
}

func Test_Record_NullListsDecodeEmpty(t *testing.T) {
	raw := `{"hoster": 1, "members": null, "event": "x", "guild": 9, "maybe": null, "select_options": null}`

	e, err := entities.UnmarshalRecord([]byte(raw))

	require.NoError(t, err)
	assert.Empty(t, e.Members)
	assert.Empty(t, e.Maybe)
	assert.Empty(t, e.SelectOptions)

	out, err := entities.MarshalRecord(e)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"members":[]`)
	assert.Contains(t, string(out), `"select_options":{}`)
}

func Test_Record_FieldsMapped(t *testing.T) {
	e, err := entities.UnmarshalRecord([]byte(fullRecord))
	require.NoError(t, err)

	assert.Equal(t, int64(42), e.GuildID)
	assert.Equal(t, int64(4444), e.ChannelID)
	assert.Equal(t, int64(5555), e.MessageID)
	require.NotNil(t, e.Start)
	assert.Equal(t, int64(1767225600), e.Start.Unix())
	require.NotNil(t, e.MaxSlots)
	assert.Equal(t, 5, *e.MaxSlots)
	assert.Equal(t, int64(999), *e.Approver)
}

func Test_Record_RejectsGarbage(t *testing.T) {
	_, err := entities.UnmarshalRecord([]byte(`{"hoster": "nope"`))

	assert.Error(t, err)
}
