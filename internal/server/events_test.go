package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientEventDecode(t *testing.T) {
	raw := []byte(`{"id":7,"vote_on_poll":{"poll_id":"p-1","option_id":"o-2"}}`)

	var ev ClientEvent
	require.NoError(t, json.Unmarshal(raw, &ev))

	assert.Equal(t, 7, ev.Id)
	require.NotNil(t, ev.VoteOnPoll)
	assert.Equal(t, "p-1", ev.VoteOnPoll.PollId)
	assert.Equal(t, "o-2", ev.VoteOnPoll.OptionId)
	assert.Nil(t, ev.SendMessage)
	assert.Nil(t, ev.Join)
}

func TestServerEventOmitsEmptyPayloads(t *testing.T) {
	ev := ErrUnauthorized(3)

	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"response"`)
	assert.NotContains(t, string(raw), "new_message")
	assert.NotContains(t, string(raw), "SkipClient")
}

func TestErrInvalidEventDropsUnusableId(t *testing.T) {
	assert.Equal(t, 0, ErrInvalidEvent(-1).Id)
	assert.Equal(t, 5, ErrInvalidEvent(5).Id)
}

func TestNowIsMillisecondUTC(t *testing.T) {
	now := Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Equal(t, now, now.Round(time.Millisecond))
}
