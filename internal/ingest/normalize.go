package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/AngelCh415/wa-optimizer/internal/models"
)

// ErrInvalidValue marks counters that are unparseable or negative.
var ErrInvalidValue = errors.New("invalid metric value")

// NormalizeRecord projects one insights row onto a MetricRecord. Missing
// counters read as 0; only the two conversation-started action types feed
// the conversion events.
func NormalizeRecord(name string, level models.Level, row map[string]any) (models.MetricRecord, error) {
	rec := models.MetricRecord{Name: name, Level: level}
	var err error
	if rec.Spend, err = floatField(row, "spend"); err != nil {
		return rec, fmt.Errorf("%s: %w", name, err)
	}
	if rec.Impressions, err = intField(row, "impressions"); err != nil {
		return rec, fmt.Errorf("%s: %w", name, err)
	}
	if rec.Clicks, err = intField(row, "clicks"); err != nil {
		return rec, fmt.Errorf("%s: %w", name, err)
	}
	if v, ok := row["reach"]; ok && v != nil && v != "" {
		reach, err := intField(row, "reach")
		if err != nil {
			return rec, fmt.Errorf("%s: %w", name, err)
		}
		rec.Reach = &reach
	}
	if rec.Actions, err = extractActions(row["actions"]); err != nil {
		return rec, fmt.Errorf("%s: %w", name, err)
	}
	if rec.CostPerAction, err = extractCosts(row["cost_per_action_type"]); err != nil {
		return rec, fmt.Errorf("%s: %w", name, err)
	}
	rec.Events = buildEvents(rec.Actions)
	if rec.Events.MessagingConversationStarted > math.MaxInt64-rec.Events.OnsiteMessagingConversationStarted {
		return rec, fmt.Errorf("%s: conversation counters overflow: %w", name, ErrInvalidValue)
	}
	return rec, nil
}

// NormalizeSegmentRow reads a country-breakdown row.
func NormalizeSegmentRow(row map[string]any) (models.SegmentRow, error) {
	country := stringField(row, "country")
	rec, err := NormalizeRecord("country "+country, models.LevelCountry, row)
	if err != nil {
		return models.SegmentRow{}, err
	}
	return models.SegmentRow{
		Country:     country,
		Spend:       rec.Spend,
		Impressions: rec.Impressions,
		Clicks:      rec.Clicks,
		Events:      rec.Events,
	}, nil
}

func buildEvents(actions map[string]int64) models.ConversionEvents {
	return models.ConversionEvents{
		MessagingConversationStarted:       actions[models.ActionMessagingStarted],
		OnsiteMessagingConversationStarted: actions[models.ActionOnsiteMessagingStarted],
	}
}

func extractActions(raw any) (map[string]int64, error) {
	out := map[string]int64{}
	err := eachActionValue(raw, func(actionType string, v float64) error {
		n, err := toCount(v)
		if err != nil {
			return err
		}
		out[actionType] = n
		return nil
	})
	return out, err
}

func extractCosts(raw any) (map[string]float64, error) {
	out := map[string]float64{}
	err := eachActionValue(raw, func(actionType string, v float64) error {
		out[actionType] = v
		return nil
	})
	return out, err
}

// eachActionValue walks a [{action_type, value}] list. Entries without an
// action type are skipped; a later duplicate overwrites an earlier one.
func eachActionValue(raw any, fn func(actionType string, v float64) error) error {
	list, _ := raw.([]any)
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		actionType := stringField(entry, "action_type")
		if actionType == "" {
			continue
		}
		v, err := floatField(entry, "value")
		if err != nil {
			return fmt.Errorf("action %s: %w", actionType, err)
		}
		if err := fn(actionType, v); err != nil {
			return fmt.Errorf("action %s: %w", actionType, err)
		}
	}
	return nil
}

func floatField(m map[string]any, key string) (float64, error) {
	v, err := toFloat(m[key])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s is negative (%v): %w", key, v, ErrInvalidValue)
	}
	return v, nil
}

func intField(m map[string]any, key string) (int64, error) {
	v, err := floatField(m, key)
	if err != nil {
		return 0, err
	}
	n, err := toCount(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// toCount truncates a non-negative float to an integer counter. Values that
// do not fit in int64 are rejected rather than wrapped.
func toCount(v float64) (int64, error) {
	if v >= float64(math.MaxInt64) {
		return 0, fmt.Errorf("%v out of range: %w", v, ErrInvalidValue)
	}
	return int64(v), nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func toFloat(v any) (float64, error) {
	var (
		f   float64
		err error
	)
	switch tv := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		f, err = tv.Float64()
	case string:
		if strings.TrimSpace(tv) == "" {
			return 0, nil
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(tv), 64)
	case float64:
		f = tv
	case int:
		f = float64(tv)
	case int64:
		f = float64(tv)
	default:
		return 0, fmt.Errorf("unsupported type %T: %w", v, ErrInvalidValue)
	}
	if err != nil {
		return 0, fmt.Errorf("%v: %w", v, ErrInvalidValue)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v: %w", v, ErrInvalidValue)
	}
	return f, nil
}
