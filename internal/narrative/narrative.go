// Package narrative asks an optional language model for commentary on the
// already computed results. It is best effort: every failure is reported as
// ErrUnavailable and the caller carries on without commentary.
package narrative

import (
	"context"
	"errors"
	"fmt"

	"github.com/AngelCh415/wa-optimizer/internal/config"
	"github.com/AngelCh415/wa-optimizer/internal/models"
)

var ErrUnavailable = errors.New("narrative unavailable")

const (
	ProviderDisabled = "disabled"
	ProviderHTTP     = "http"
	ProviderBedrock  = "bedrock"
)

type Payload struct {
	Account  models.MetricRecord         `json:"account"`
	Entities []models.MetricRecord       `json:"entities"`
	Country  []models.SegmentPerformance `json:"country"`
}

type Narrator interface {
	Summarize(ctx context.Context, p Payload) (string, error)
}

type Disabled struct{}

func (Disabled) Summarize(context.Context, Payload) (string, error) {
	return "", fmt.Errorf("%w: provider disabled", ErrUnavailable)
}

// New picks the provider named in cfg. Bedrock needs AWS credentials at
// construction; when they cannot be loaded the error is returned together
// with a Disabled narrator so callers can log and continue.
func New(ctx context.Context, cfg config.Config) (Narrator, error) {
	switch cfg.Narrative.Provider {
	case "", ProviderDisabled:
		return Disabled{}, nil
	case ProviderHTTP:
		return NewHTTP(cfg.Narrative.Endpoint, cfg.Narrative.APIKey, cfg.NarrativeTimeout()), nil
	case ProviderBedrock:
		b, err := NewBedrock(ctx, cfg.Narrative.AWSRegion, cfg.Narrative.ModelID, cfg.NarrativeTimeout())
		if err != nil {
			return Disabled{}, err
		}
		return b, nil
	default:
		return Disabled{}, fmt.Errorf("unknown narrative provider %q", cfg.Narrative.Provider)
	}
}
