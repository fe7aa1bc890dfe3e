package segments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/wa-optimizer/internal/models"
)

func TestBuildDefaultsUnknownCountry(t *testing.T) {
	got := Build([]models.SegmentRow{
		{Country: "US", Spend: 50, Impressions: 1000, Clicks: 20, Events: models.ConversionEvents{MessagingConversationStarted: 10}},
		{Country: "  ", Spend: 0, Impressions: 10},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "US", got[0].Country)
	assert.InDelta(t, 5.0, got[0].CPR, 1e-9)
	assert.InDelta(t, 0.02, got[0].CTR, 1e-9)
	assert.InDelta(t, 0.5, got[0].ConvRate, 1e-9)
	assert.Equal(t, models.UnknownCountry, got[1].Country)
	assert.Zero(t, got[1].CPR)
}

func TestSummaryNamesWorstCountry(t *testing.T) {
	rows := []models.SegmentPerformance{
		{Country: "US", CPR: 5.0, CTR: 0.01, ConvRate: 0.2},
		{Country: "FR", CPR: 9.0, CTR: 0.012345, ConvRate: 0.33333},
	}
	assert.Equal(t, "Highest CPR country FR at 9.00 with CTR 0.0123 and conversation rate 0.3333.", Summary(rows))
}

func TestWorstTieKeepsFirst(t *testing.T) {
	rows := []models.SegmentPerformance{
		{Country: "BR", CPR: 3},
		{Country: "MX", CPR: 7},
		{Country: "AR", CPR: 7},
	}
	w, ok := Worst(rows)
	require.True(t, ok)
	assert.Equal(t, "MX", w.Country)
}

func TestSummaryEmpty(t *testing.T) {
	assert.Equal(t, "Country data missing; conclusions blocked.", Summary(nil))
}
