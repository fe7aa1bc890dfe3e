// Package guardrail blocks decisions on data that cannot support them.
// Failures are hard stops: callers must reject the request.
package guardrail

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AngelCh415/wa-optimizer/internal/models"
)

type DataQualityError struct {
	Entity string
	Reason string
}

func (e *DataQualityError) Error() string {
	if e.Entity == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
}

// ValidateMetric rejects a record with no delivery at all, or with spend but
// no attributable conversation.
func ValidateMetric(r models.MetricRecord) error {
	if r.Impressions == 0 {
		return &DataQualityError{Entity: r.Name, Reason: "impressions missing"}
	}
	if r.Spend > 0 && r.Events.Total() == 0 {
		return &DataQualityError{Entity: r.Name, Reason: "spend recorded but WhatsApp events missing"}
	}
	return nil
}

func ValidateSegments(rows []models.SegmentPerformance) error {
	if len(rows) == 0 {
		return &DataQualityError{Entity: "country", Reason: "country data missing"}
	}
	for _, row := range rows {
		if row.Impressions == 0 {
			return &DataQualityError{Entity: "country " + row.Country, Reason: "zero impressions"}
		}
	}
	return nil
}

// SummarizeMissingSignals lists the flags set to true, sorted by name.
func SummarizeMissingSignals(flags map[string]bool) string {
	var missing []string
	for name, isMissing := range flags {
		if isMissing {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return ""
	}
	sort.Strings(missing)
	return "Missing signals: " + strings.Join(missing, ", ")
}
