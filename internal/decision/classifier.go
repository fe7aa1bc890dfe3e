// Package decision classifies one entity against the account baseline.
//
// The rule ladder is an ordered list of guarded branches; the first branch
// whose guard matches decides. Later guards assume every earlier one failed,
// so the order of ladder is part of the contract.
package decision

import (
	"fmt"
	"math"

	"github.com/AngelCh415/wa-optimizer/internal/metrics"
	"github.com/AngelCh415/wa-optimizer/internal/models"
)

// LearningEventsThreshold is the conversation volume below which the
// delivery algorithm is assumed to still be exploring.
const LearningEventsThreshold = 50

const (
	underperformRatio = 1.5
	outperformRatio   = 0.8
	volatilityRatio   = 0.6
)

type Condition int

const (
	LearningPhase Condition = iota
	UnmeasurableCost
	Underperforming
	Outperforming
	Steady
)

func (c Condition) String() string {
	switch c {
	case LearningPhase:
		return "learning_phase"
	case UnmeasurableCost:
		return "unmeasurable_cost"
	case Underperforming:
		return "underperforming"
	case Outperforming:
		return "outperforming"
	default:
		return "steady"
	}
}

// evaluation is computed once per classification so every branch sees the
// same rates and the same volatility flag.
type evaluation struct {
	entity   string
	baseline models.DerivedRates
	rates    models.DerivedRates
	events   int64
	volatile bool
	summary  string
}

func evaluate(baseline models.DerivedRates, rec models.MetricRecord, summary string) evaluation {
	rates := metrics.Rates(rec)
	return evaluation{
		entity:   rec.Name,
		baseline: baseline,
		rates:    rates,
		events:   rec.Events.Total(),
		volatile: rates.CTR < baseline.CTR*volatilityRatio || rates.ConvRate < baseline.ConvRate*volatilityRatio,
		summary:  summary,
	}
}

// measurableBaseline guards the comparative branches: a zero account CPR
// gives nothing to compare against. With it, a volatile entity that has spend
// under a zero-spend account stabilizes instead of being restructured at the
// 60% clamp.
func (e evaluation) measurableBaseline() bool { return e.baseline.CPR > 0 }

type branch struct {
	cond Condition
	when func(e evaluation) bool
	then func(e evaluation) models.Decision
}

var ladder = []branch{
	{
		cond: LearningPhase,
		when: func(e evaluation) bool { return e.events < LearningEventsThreshold },
		then: func(e evaluation) models.Decision {
			return models.Decision{
				Action: models.ActionStabilize,
				Justification: fmt.Sprintf(
					"Learning phase protection: %d conversations (<%d) for %s at CPR %.2f vs account CPR %.2f. Hold structure to avoid reset. %s",
					e.events, LearningEventsThreshold, e.entity, e.rates.CPR, e.baseline.CPR, e.summary),
				RiskLevel:         models.RiskHigh,
				LearningResetRisk: models.RiskHigh,
			}
		},
	},
	{
		cond: UnmeasurableCost,
		when: func(e evaluation) bool { return e.rates.CPR == 0 },
		then: func(e evaluation) models.Decision {
			return models.Decision{
				Action: models.ActionStabilize,
				Justification: fmt.Sprintf(
					"No WhatsApp CPR computed for %s (CPR %.2f vs account CPR %.2f); no spend signal to act on, conclusions blocked. %s",
					e.entity, e.rates.CPR, e.baseline.CPR, e.summary),
				RiskLevel:         models.RiskHigh,
				LearningResetRisk: models.RiskHigh,
			}
		},
	},
	{
		cond: Underperforming,
		when: func(e evaluation) bool {
			return e.measurableBaseline() && e.rates.CPR > e.baseline.CPR*underperformRatio && e.volatile
		},
		then: func(e evaluation) models.Decision {
			// CPR is non-zero here: UnmeasurableCost matched otherwise.
			change := clamp(5, 60, (1-e.baseline.CPR/e.rates.CPR)*100)
			return models.Decision{
				Action: models.ActionRestructure,
				Justification: fmt.Sprintf(
					"%s CPR %.2f is over 50%% above account CPR %.2f with weak CTR/conv. Address creative intent and geo isolation. %s",
					e.entity, e.rates.CPR, e.baseline.CPR, e.summary),
				RiskLevel:            models.RiskMedium,
				ExpectedCPRChangePct: round2(change),
				LearningResetRisk:    models.RiskMedium,
			}
		},
	},
	{
		cond: Outperforming,
		when: func(e evaluation) bool {
			return e.measurableBaseline() && e.rates.CPR < e.baseline.CPR*outperformRatio && e.events >= LearningEventsThreshold
		},
		then: func(e evaluation) models.Decision {
			change := clamp(5, 40, (e.baseline.CPR/e.rates.CPR-1)*100)
			return models.Decision{
				Action: models.ActionScale,
				Justification: fmt.Sprintf(
					"%s CPR %.2f is over 20%% below account CPR %.2f with stable volume. Scale carefully without mixing geos. %s",
					e.entity, e.rates.CPR, e.baseline.CPR, e.summary),
				RiskLevel:            models.RiskLow,
				ExpectedCPRChangePct: round2(change),
				LearningResetRisk:    models.RiskLow,
			}
		},
	},
	{
		cond: Steady,
		when: func(evaluation) bool { return true },
		then: func(e evaluation) models.Decision {
			risk := models.RiskLow
			if e.volatile {
				risk = models.RiskMedium
			}
			return models.Decision{
				Action: models.ActionStabilize,
				Justification: fmt.Sprintf(
					"%s CPR %.2f within thresholds of account CPR %.2f. Maintain while monitoring. %s",
					e.entity, e.rates.CPR, e.baseline.CPR, e.summary),
				RiskLevel:         risk,
				LearningResetRisk: models.RiskLow,
			}
		},
	},
}

// pick returns the first matching branch. The last branch always matches.
func pick(e evaluation) branch {
	for _, b := range ladder {
		if b.when(e) {
			return b
		}
	}
	return ladder[len(ladder)-1]
}

// Match reports which branch of the ladder decides rec.
func Match(baseline models.DerivedRates, rec models.MetricRecord) Condition {
	return pick(evaluate(baseline, rec, "")).cond
}

// Classify never fails; rec and the baseline inputs must already have passed
// the guardrail. summary is appended verbatim to the justification.
func Classify(baseline models.DerivedRates, rec models.MetricRecord, summary string) models.Decision {
	e := evaluate(baseline, rec, summary)
	d := pick(e).then(e)
	d.Entity = rec.Name
	return d
}

// ClassifyAll keeps the order of recs.
func ClassifyAll(baseline models.DerivedRates, recs []models.MetricRecord, summary string) []models.Decision {
	out := make([]models.Decision, 0, len(recs))
	for _, r := range recs {
		out = append(out, Classify(baseline, r, summary))
	}
	return out
}

func clamp(lo, hi, v float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
