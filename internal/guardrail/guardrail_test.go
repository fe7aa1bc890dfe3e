package guardrail

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/wa-optimizer/internal/models"
)

func TestValidateMetric(t *testing.T) {
	cases := []struct {
		name    string
		rec     models.MetricRecord
		wantErr string
	}{
		{
			name:    "zero impressions always fails",
			rec:     models.MetricRecord{Name: "ad:1", Spend: 0, Clicks: 10, Events: models.ConversionEvents{MessagingConversationStarted: 80}},
			wantErr: "ad:1: impressions missing",
		},
		{
			name:    "spend without conversations fails",
			rec:     models.MetricRecord{Name: "ad:2", Spend: 100, Impressions: 5000, Clicks: 40},
			wantErr: "ad:2: spend recorded but WhatsApp events missing",
		},
		{
			name: "no spend and no conversations passes",
			rec:  models.MetricRecord{Name: "ad:3", Impressions: 10},
		},
		{
			name: "clicks above impressions is not a guardrail concern",
			rec:  models.MetricRecord{Name: "ad:4", Spend: 5, Impressions: 10, Clicks: 90, Events: models.ConversionEvents{OnsiteMessagingConversationStarted: 1}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateMetric(tc.rec)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.EqualError(t, err, tc.wantErr)

			var dq *DataQualityError
			require.True(t, errors.As(err, &dq))
			assert.Equal(t, tc.rec.Name, dq.Entity)
		})
	}
}

func TestValidateSegments(t *testing.T) {
	err := ValidateSegments(nil)
	var dq *DataQualityError
	require.True(t, errors.As(err, &dq))
	assert.Equal(t, "country data missing", dq.Reason)

	err = ValidateSegments([]models.SegmentPerformance{
		{Country: "US", Impressions: 100},
		{Country: "FR", Impressions: 0},
	})
	require.True(t, errors.As(err, &dq))
	assert.Equal(t, "country FR", dq.Entity)

	assert.NoError(t, ValidateSegments([]models.SegmentPerformance{{Country: "US", Impressions: 1}}))
}

func TestSummarizeMissingSignals(t *testing.T) {
	assert.Equal(t, "", SummarizeMissingSignals(map[string]bool{"reach": false}))
	assert.Equal(t, "Missing signals: clicks, reach",
		SummarizeMissingSignals(map[string]bool{"reach": true, "spend": false, "clicks": true}))
}
