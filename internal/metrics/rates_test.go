package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AngelCh415/wa-optimizer/internal/models"
)

func events(primary, onsite int64) models.ConversionEvents {
	return models.ConversionEvents{MessagingConversationStarted: primary, OnsiteMessagingConversationStarted: onsite}
}

func TestRatesZeroDenominators(t *testing.T) {
	cases := []struct {
		name string
		rec  models.MetricRecord
		want models.DerivedRates
	}{
		{
			name: "no impressions keeps ctr at zero",
			rec:  models.MetricRecord{Spend: 10, Clicks: 40, Events: events(4, 0)},
			want: models.DerivedRates{CPR: 2.5, CTR: 0, ConvRate: 0.1},
		},
		{
			name: "no clicks keeps conversion rate at zero",
			rec:  models.MetricRecord{Spend: 10, Impressions: 1000, Events: events(5, 5)},
			want: models.DerivedRates{CPR: 1, CTR: 0, ConvRate: 0},
		},
		{
			name: "no events keeps cpr at zero",
			rec:  models.MetricRecord{Spend: 250, Impressions: 1000, Clicks: 50},
			want: models.DerivedRates{CPR: 0, CTR: 0.05, ConvRate: 0},
		},
		{
			name: "clicks above impressions pass through",
			rec:  models.MetricRecord{Spend: 30, Impressions: 10, Clicks: 20, Events: events(2, 1)},
			want: models.DerivedRates{CPR: 10, CTR: 2, ConvRate: 0.15},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Rates(tc.rec)
			assert.InDelta(t, tc.want.CPR, got.CPR, 1e-9)
			assert.InDelta(t, tc.want.CTR, got.CTR, 1e-9)
			assert.InDelta(t, tc.want.ConvRate, got.ConvRate, 1e-9)
		})
	}
}

func TestCostPerResultSumsBothCounters(t *testing.T) {
	assert.InDelta(t, 5.0, CostPerResult(100, events(12, 8)), 1e-9)
}

func TestDecomposeRoundsForDisplayOnly(t *testing.T) {
	rec := models.MetricRecord{
		Name:        "ad:1",
		Spend:       12.345678,
		Impressions: 3000,
		Clicks:      7,
		Events:      events(3, 0),
	}
	d := Decompose(rec)
	assert.Equal(t, "ad:1", d.Entity)
	assert.Equal(t, 4.1152, d.AuctionPressureCPM)
	assert.Equal(t, 0.002333, d.SignalQualityCTR)
	assert.Equal(t, 0.428571, d.ConversionProbability)

	// the unrounded rate is still available for arithmetic
	assert.InDelta(t, 7.0/3000.0, Rates(rec).CTR, 1e-12)
}

func TestDecomposeZeroImpressions(t *testing.T) {
	d := Decompose(models.MetricRecord{Spend: 50})
	assert.Zero(t, d.AuctionPressureCPM)
	assert.Zero(t, d.SignalQualityCTR)
	assert.Zero(t, d.ConversionProbability)
}
