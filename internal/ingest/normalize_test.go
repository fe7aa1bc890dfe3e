package ingest

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/wa-optimizer/internal/models"
)

func decodeRow(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestNormalizeRecordProjectsConversationActions(t *testing.T) {
	row := decodeRow(t, `{
		"spend": "125.50",
		"impressions": "20000",
		"clicks": "400",
		"reach": "15000",
		"actions": [
			{"action_type": "link_click", "value": "400"},
			{"action_type": "messaging_conversation_started", "value": "42"},
			{"action_type": "onsite_conversion.messaging_conversation_started", "value": "8.0"},
			{"value": "3"}
		],
		"cost_per_action_type": [
			{"action_type": "messaging_conversation_started", "value": "2.98"}
		]
	}`)
	rec, err := NormalizeRecord("account", models.LevelAccount, row)
	require.NoError(t, err)

	assert.Equal(t, 125.5, rec.Spend)
	assert.Equal(t, int64(20000), rec.Impressions)
	assert.Equal(t, int64(400), rec.Clicks)
	require.NotNil(t, rec.Reach)
	assert.Equal(t, int64(15000), *rec.Reach)
	assert.Equal(t, int64(42), rec.Events.MessagingConversationStarted)
	assert.Equal(t, int64(8), rec.Events.OnsiteMessagingConversationStarted)
	assert.Equal(t, int64(50), rec.Events.Total())
	assert.Equal(t, int64(400), rec.Actions["link_click"])
	assert.Len(t, rec.Actions, 3)
	assert.Equal(t, 2.98, rec.CostPerAction[models.ActionMessagingStarted])
}

func TestNormalizeRecordDefaultsMissingCounters(t *testing.T) {
	rec, err := NormalizeRecord("ad:1", models.LevelAd, map[string]any{})
	require.NoError(t, err)
	assert.Zero(t, rec.Spend)
	assert.Zero(t, rec.Impressions)
	assert.Nil(t, rec.Reach)
	assert.Zero(t, rec.Events.Total())
	assert.NotNil(t, rec.Actions)
}

func TestNormalizeRecordKeepsZeroReach(t *testing.T) {
	rec, err := NormalizeRecord("account", models.LevelAccount, decodeRow(t, `{"impressions":"10","reach":"0"}`))
	require.NoError(t, err)
	require.NotNil(t, rec.Reach)
	assert.Equal(t, int64(0), *rec.Reach)
}

func TestNormalizeRecordKeepsLargeCountersInRange(t *testing.T) {
	rec, err := NormalizeRecord("ad:1", models.LevelAd, decodeRow(t, `{"impressions":"4e18","actions":[
		{"action_type":"messaging_conversation_started","value":"4e18"},
		{"action_type":"onsite_conversion.messaging_conversation_started","value":"4e18"}]}`))
	require.NoError(t, err)
	assert.Equal(t, int64(4e18), rec.Impressions)
	assert.Equal(t, int64(8e18), rec.Events.Total())
}

func TestNormalizeRecordKeepsClicksAboveImpressions(t *testing.T) {
	rec, err := NormalizeRecord("ad:1", models.LevelAd, decodeRow(t, `{"impressions":"10","clicks":"25"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.Impressions)
	assert.Equal(t, int64(25), rec.Clicks)
}

func TestNormalizeRecordRejectsBadValues(t *testing.T) {
	for _, raw := range []string{
		`{"spend":"-1"}`,
		`{"impressions":"lots"}`,
		`{"actions":[{"action_type":"messaging_conversation_started","value":"-4"}]}`,
		`{"impressions":"1e19"}`,
		`{"clicks":"9223372036854775808"}`,
		`{"actions":[{"action_type":"messaging_conversation_started","value":"1e19"}]}`,
		`{"actions":[
			{"action_type":"messaging_conversation_started","value":"9e18"},
			{"action_type":"onsite_conversion.messaging_conversation_started","value":"9e18"}]}`,
	} {
		_, err := NormalizeRecord("ad:1", models.LevelAd, decodeRow(t, raw))
		assert.True(t, errors.Is(err, ErrInvalidValue), raw)
	}
}

func TestNormalizeSegmentRow(t *testing.T) {
	row, err := NormalizeSegmentRow(decodeRow(t, `{
		"country": "FR", "spend": "90", "impressions": "1000", "clicks": "50",
		"actions": [{"action_type": "onsite_conversion.messaging_conversation_started", "value": "10"}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "FR", row.Country)
	assert.Equal(t, int64(10), row.Events.Total())

	row, err = NormalizeSegmentRow(decodeRow(t, `{"impressions": "5"}`))
	require.NoError(t, err)
	assert.Equal(t, "", row.Country)
}
