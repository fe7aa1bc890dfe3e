// Package optimize runs one optimization request end to end: fetch,
// validate, aggregate, classify, and optionally narrate.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AngelCh415/wa-optimizer/internal/config"
	"github.com/AngelCh415/wa-optimizer/internal/decision"
	"github.com/AngelCh415/wa-optimizer/internal/guardrail"
	"github.com/AngelCh415/wa-optimizer/internal/ingest"
	"github.com/AngelCh415/wa-optimizer/internal/metrics"
	"github.com/AngelCh415/wa-optimizer/internal/models"
	"github.com/AngelCh415/wa-optimizer/internal/narrative"
	"github.com/AngelCh415/wa-optimizer/internal/segments"
)

var ErrInvalidRequest = errors.New("invalid request")

const (
	NarrativeOK          = "ok"
	NarrativeUnavailable = "unavailable"
)

// Observer receives operational counts. It never influences decisions.
type Observer interface {
	ObserveDecision(action models.Action)
	ObserveNarrative(outcome string)
	ObserveUpstream(outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveDecision(models.Action) {}
func (nopObserver) ObserveNarrative(string) {}
func (nopObserver) ObserveUpstream(string) {}

type Service struct {
	c        ingest.HTTPClient
	narrator narrative.Narrator
	obs      Observer
	log      *slog.Logger
	cfg      config.Config
}

func NewService(c ingest.HTTPClient, narrator narrative.Narrator, obs Observer, log *slog.Logger, cfg config.Config) *Service {
	if narrator == nil {
		narrator = narrative.Disabled{}
	}
	if obs == nil {
		obs = nopObserver{}
	}
	return &Service{c: c, narrator: narrator, obs: obs, log: log, cfg: cfg}
}

// Run fails fast: the first upstream or data-quality problem rejects the
// whole request and nothing partial is returned.
func (s *Service) Run(ctx context.Context, req models.OptimizationRequest) (models.OptimizationResponse, error) {
	if strings.TrimSpace(req.AccessToken) == "" {
		return models.OptimizationResponse{}, fmt.Errorf("%w: access_token required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.AdAccountID) == "" {
		return models.OptimizationResponse{}, fmt.Errorf("%w: ad_account_id required", ErrInvalidRequest)
	}
	log := s.log.With(slog.String("account", req.AdAccountID))

	g := ingest.NewGraph(s.c, s.cfg.GraphBaseURL, s.cfg.GraphAPIVersion, req.AccessToken,
		ingest.WithObserver(s.obs.ObserveUpstream))
	f := ingest.NewFetcher(g, s.cfg.InsightsSince)

	account, err := f.Account(ctx, req.AdAccountID)
	if err != nil {
		return s.reject(log, err)
	}
	if err := guardrail.ValidateMetric(account); err != nil {
		return s.reject(log, err)
	}
	if missing := guardrail.SummarizeMissingSignals(map[string]bool{
		"reach":           account.Reach == nil,
		"cost_per_action": len(account.CostPerAction) == 0,
	}); missing != "" {
		log.Info("account signals", slog.String("missing", missing))
	}

	entities, err := s.fetchEntities(ctx, f, req)
	if err != nil {
		return s.reject(log, err)
	}

	rows, err := f.CountryBreakdown(ctx, req.AdAccountID, req.AdIDs)
	if err != nil {
		return s.reject(log, err)
	}
	country := segments.Build(rows)
	if err := guardrail.ValidateSegments(country); err != nil {
		return s.reject(log, err)
	}

	baseline := metrics.Rates(account)
	decisions := decision.ClassifyAll(baseline, entities, segments.Summary(country))
	diagnostics := make([]models.Decomposition, 0, len(entities))
	for i, e := range entities {
		diagnostics = append(diagnostics, metrics.Decompose(e))
		s.obs.ObserveDecision(decisions[i].Action)
	}

	resp := models.OptimizationResponse{
		Status:          "OK",
		Account:         account,
		Baseline:        baseline,
		Entities:        entities,
		Diagnostics:     diagnostics,
		CountryAnalysis: country,
		Decisions:       decisions,
		AIAnalysis:      s.narrate(ctx, log, narrative.Payload{Account: account, Entities: entities, Country: country}),
	}
	log.Info("optimization complete",
		slog.Int("entities", len(entities)),
		slog.Int("countries", len(country)),
		slog.Bool("ai_analysis", resp.AIAnalysis != nil))
	return resp, nil
}

// fetchEntities evaluates ads, then ad sets, then campaigns. Every entity is
// validated as soon as it arrives.
func (s *Service) fetchEntities(ctx context.Context, f *ingest.Fetcher, req models.OptimizationRequest) ([]models.MetricRecord, error) {
	groups := []struct {
		ids   []string
		fetch func(context.Context, string) (models.MetricRecord, error)
	}{
		{req.AdIDs, f.Ad},
		{req.AdSetIDs, f.AdSet},
		{req.CampaignIDs, f.Campaign},
	}
	var out []models.MetricRecord
	for _, grp := range groups {
		for _, id := range grp.ids {
			rec, err := grp.fetch(ctx, id)
			if err != nil {
				return nil, err
			}
			if err := guardrail.ValidateMetric(rec); err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
	}
	if out == nil {
		out = []models.MetricRecord{}
	}
	return out, nil
}

func (s *Service) narrate(ctx context.Context, log *slog.Logger, p narrative.Payload) *string {
	text, err := s.narrator.Summarize(ctx, p)
	if err != nil {
		s.obs.ObserveNarrative(NarrativeUnavailable)
		if _, off := s.narrator.(narrative.Disabled); off {
			log.Debug("narrative disabled")
		} else {
			log.Warn("narrative failed", slog.String("err", err.Error()))
		}
		return nil
	}
	s.obs.ObserveNarrative(NarrativeOK)
	return &text
}

func (s *Service) reject(log *slog.Logger, err error) (models.OptimizationResponse, error) {
	var dq *guardrail.DataQualityError
	if errors.As(err, &dq) {
		log.Warn("guardrail rejection", slog.String("entity", dq.Entity), slog.String("reason", dq.Reason))
	} else {
		log.Warn("upstream fetch failed", slog.String("err", err.Error()))
	}
	return models.OptimizationResponse{}, err
}

// IsRejection reports whether err means the data cannot support a decision,
// as opposed to an internal failure.
func IsRejection(err error) bool {
	var dq *guardrail.DataQualityError
	var up *ingest.UpstreamDataError
	return errors.As(err, &dq) ||
		errors.As(err, &up) ||
		errors.Is(err, ingest.ErrNoInsights) ||
		errors.Is(err, ingest.ErrInvalidValue) ||
		errors.Is(err, ErrInvalidRequest)
}
