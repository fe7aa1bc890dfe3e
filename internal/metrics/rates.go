// Package metrics derives comparable rate metrics from raw counters.
//
// Every rate is a total function: a zero denominator yields 0 rather than an
// error. Telling "no signal yet" apart from a genuine zero is the guardrail's
// job, not this package's.
package metrics

import (
	"math"

	"github.com/AngelCh415/wa-optimizer/internal/models"
)

// CostPerResult is spend per WhatsApp conversation, 0 with no conversations.
func CostPerResult(spend float64, ev models.ConversionEvents) float64 {
	return safeDivF(spend, float64(ev.Total()))
}

// CTR is clicks per impression, 0 with no impressions.
func CTR(clicks, impressions int64) float64 {
	return safeDivF(float64(clicks), float64(impressions))
}

// ConversionRate is conversations per click, 0 with no clicks.
func ConversionRate(clicks int64, ev models.ConversionEvents) float64 {
	return safeDivF(float64(ev.Total()), float64(clicks))
}

func Rates(r models.MetricRecord) models.DerivedRates {
	return models.DerivedRates{
		CPR:      CostPerResult(r.Spend, r.Events),
		CTR:      CTR(r.Clicks, r.Impressions),
		ConvRate: ConversionRate(r.Clicks, r.Events),
	}
}

// Decompose splits CPR into auction pressure (CPM), signal quality (CTR) and
// conversion probability. Values are rounded for display only; callers doing
// arithmetic must use Rates.
func Decompose(r models.MetricRecord) models.Decomposition {
	cpm := safeDivF(r.Spend, float64(r.Impressions)) * 1000
	return models.Decomposition{
		Entity:                r.Name,
		AuctionPressureCPM:    roundTo(cpm, 4),
		SignalQualityCTR:      roundTo(CTR(r.Clicks, r.Impressions), 6),
		ConversionProbability: roundTo(ConversionRate(r.Clicks, r.Events), 6),
	}
}

func safeDivF(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func roundTo(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
