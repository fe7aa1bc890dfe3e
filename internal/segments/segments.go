// Package segments computes per-country performance and the worst-country
// sentence embedded in decision justifications.
package segments

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/AngelCh415/wa-optimizer/internal/metrics"
	"github.com/AngelCh415/wa-optimizer/internal/models"
)

const missingSummary = "Country data missing; conclusions blocked."

// Build keeps one SegmentPerformance per row, in input order. Rows without a
// country are labelled UNKNOWN, never dropped.
func Build(rows []models.SegmentRow) []models.SegmentPerformance {
	out := make([]models.SegmentPerformance, 0, len(rows))
	for _, r := range rows {
		country := strings.TrimSpace(r.Country)
		if country == "" {
			country = models.UnknownCountry
		}
		out = append(out, models.SegmentPerformance{
			Country:     country,
			Spend:       r.Spend,
			Impressions: r.Impressions,
			Clicks:      r.Clicks,
			Events:      r.Events,
			CPR:         metrics.CostPerResult(r.Spend, r.Events),
			CTR:         metrics.CTR(r.Clicks, r.Impressions),
			ConvRate:    metrics.ConversionRate(r.Clicks, r.Events),
		})
	}
	return out
}

// Worst returns the segment with the highest CPR; the first one wins a tie.
func Worst(rows []models.SegmentPerformance) (models.SegmentPerformance, bool) {
	if len(rows) == 0 {
		return models.SegmentPerformance{}, false
	}
	cprs := make([]float64, len(rows))
	for i, r := range rows {
		cprs[i] = r.CPR
	}
	return rows[floats.MaxIdx(cprs)], true
}

// Summary is advisory text, so an empty input yields a sentence, not an error.
func Summary(rows []models.SegmentPerformance) string {
	worst, ok := Worst(rows)
	if !ok {
		return missingSummary
	}
	return fmt.Sprintf("Highest CPR country %s at %.2f with CTR %.4f and conversation rate %.4f.",
		worst.Country, worst.CPR, worst.CTR, worst.ConvRate)
}
