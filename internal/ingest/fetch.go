package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/AngelCh415/wa-optimizer/internal/models"
)

// ErrNoInsights is returned when a required entity has an empty data array.
var ErrNoInsights = errors.New("no insights returned")

const (
	accountFields  = "spend,impressions,clicks,reach,actions,cost_per_action_type"
	campaignFields = "campaign_id,objective,spend,impressions,clicks,actions,cost_per_action_type"
	adSetFields    = "adset_id,spend,impressions,clicks,actions,cost_per_action_type"
	adFields       = "ad_id,adset_id,campaign_id,spend,impressions,clicks,actions,cost_per_action_type"
	countryFields  = "country,spend,impressions,clicks,actions"
)

// Fetcher turns Graph responses into normalized records.
type Fetcher struct {
	g     *Graph
	since string
}

// NewFetcher reads insights from since (YYYY-MM-DD) until "today" for the
// account level; entity levels use the API's default window.
func NewFetcher(g *Graph, since string) *Fetcher {
	return &Fetcher{g: g, since: since}
}

func (f *Fetcher) Account(ctx context.Context, accountID string) (models.MetricRecord, error) {
	row, err := f.firstRow(ctx, accountID+"/insights", map[string]any{
		"fields":     accountFields,
		"level":      "account",
		"time_range": map[string]string{"since": f.since, "until": "today"},
	})
	if err != nil {
		return models.MetricRecord{}, fmt.Errorf("account %s: %w", accountID, err)
	}
	rec, err := NormalizeRecord("account", models.LevelAccount, row)
	if err != nil {
		return rec, err
	}
	rec.AccountID = accountID
	return rec, nil
}

func (f *Fetcher) Campaign(ctx context.Context, campaignID string) (models.MetricRecord, error) {
	row, err := f.firstRow(ctx, "insights", map[string]any{
		"fields":    campaignFields,
		"level":     "campaign",
		"filtering": []filter{{Field: "campaign.id", Operator: "EQUAL", Value: campaignID}},
	})
	if err != nil {
		return models.MetricRecord{}, fmt.Errorf("campaign %s: %w", campaignID, err)
	}
	rec, err := NormalizeRecord("campaign:"+campaignID, models.LevelCampaign, row)
	if err != nil {
		return rec, err
	}
	rec.CampaignID = campaignID
	rec.Objective = stringField(row, "objective")
	return rec, nil
}

func (f *Fetcher) AdSet(ctx context.Context, adSetID string) (models.MetricRecord, error) {
	row, err := f.firstRow(ctx, "insights", map[string]any{
		"fields":    adSetFields,
		"level":     "adset",
		"filtering": []filter{{Field: "adset.id", Operator: "EQUAL", Value: adSetID}},
	})
	if err != nil {
		return models.MetricRecord{}, fmt.Errorf("adset %s: %w", adSetID, err)
	}
	details, err := f.g.Get(ctx, adSetID, map[string]any{
		"fields": "campaign_id,daily_budget,bid_strategy,optimization_goal,billing_event,targeting",
	})
	if err != nil {
		return models.MetricRecord{}, fmt.Errorf("adset %s details: %w", adSetID, err)
	}
	rec, err := NormalizeRecord("adset:"+adSetID, models.LevelAdSet, row)
	if err != nil {
		return rec, err
	}
	rec.AdSetID = adSetID
	rec.CampaignID = stringField(details, "campaign_id")
	rec.BidStrategy = stringField(details, "bid_strategy")
	if _, ok := details["daily_budget"]; ok {
		// the API reports budgets in minor currency units
		budget, err := floatField(details, "daily_budget")
		if err != nil {
			return rec, fmt.Errorf("%s: %w", rec.Name, err)
		}
		if budget > 0 {
			budget /= 100
			rec.DailyBudget = &budget
		}
	}
	rec.Targeting = map[string]string{
		"optimization_goal": stringField(details, "optimization_goal"),
		"billing_event":     stringField(details, "billing_event"),
	}
	return rec, nil
}

// Ad fetches insights, then the ad's creative id, then the creative itself.
// Each call depends on the previous response, so they run in sequence.
func (f *Fetcher) Ad(ctx context.Context, adID string) (models.MetricRecord, error) {
	row, err := f.firstRow(ctx, "insights", map[string]any{
		"fields":    adFields,
		"level":     "ad",
		"filtering": []filter{{Field: "ad.id", Operator: "EQUAL", Value: adID}},
	})
	if err != nil {
		return models.MetricRecord{}, fmt.Errorf("ad %s: %w", adID, err)
	}
	rec, err := NormalizeRecord("ad:"+adID, models.LevelAd, row)
	if err != nil {
		return rec, err
	}
	rec.AdID = adID
	rec.AdSetID = stringField(row, "adset_id")
	rec.CampaignID = stringField(row, "campaign_id")

	details, err := f.g.Get(ctx, adID, map[string]any{"fields": "creative"})
	if err != nil {
		return rec, fmt.Errorf("ad %s details: %w", adID, err)
	}
	creativeRef, _ := details["creative"].(map[string]any)
	rec.CreativeID = stringField(creativeRef, "id")
	if rec.CreativeID == "" {
		return rec, nil
	}
	creative, err := f.g.Get(ctx, rec.CreativeID, map[string]any{
		"fields": "call_to_action_type,object_story_spec",
	})
	if err != nil {
		return rec, fmt.Errorf("creative %s: %w", rec.CreativeID, err)
	}
	rec.CTAType = stringField(creative, "call_to_action_type")
	story, _ := creative["object_story_spec"].(map[string]any)
	linkData, _ := story["link_data"].(map[string]any)
	rec.WhatsAppDeepLink = stringField(linkData, "link")
	return rec, nil
}

// CountryBreakdown returns one row per country/ad pair, optionally limited
// to adIDs. An empty result is not an error here; the guardrail decides.
func (f *Fetcher) CountryBreakdown(ctx context.Context, accountID string, adIDs []string) ([]models.SegmentRow, error) {
	filters := []filter{}
	if len(adIDs) > 0 {
		filters = append(filters, filter{Field: "ad.id", Operator: "IN", Value: adIDs})
	}
	payload, err := f.g.Get(ctx, accountID+"/insights", map[string]any{
		"fields":     countryFields,
		"breakdowns": "country",
		"level":      "ad",
		"filtering":  filters,
	})
	if err != nil {
		return nil, fmt.Errorf("country breakdown: %w", err)
	}
	data, _ := payload["data"].([]any)
	rows := make([]models.SegmentRow, 0, len(data))
	for _, item := range data {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row, err := NormalizeSegmentRow(m)
		if err != nil {
			return nil, fmt.Errorf("country breakdown: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

func (f *Fetcher) firstRow(ctx context.Context, path string, params map[string]any) (map[string]any, error) {
	payload, err := f.g.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	data, _ := payload["data"].([]any)
	if len(data) == 0 {
		return nil, ErrNoInsights
	}
	row, ok := data[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("malformed insights row: %w", ErrInvalidValue)
	}
	return row, nil
}
