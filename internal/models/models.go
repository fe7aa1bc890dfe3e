package models

// Recognised conversion action types. Everything else in an actions list is
// kept on the record but never counted as a conversion.
const (
	ActionMessagingStarted       = "messaging_conversation_started"
	ActionOnsiteMessagingStarted = "onsite_conversion.messaging_conversation_started"
)

// UnknownCountry labels segment rows that arrive without a country.
const UnknownCountry = "UNKNOWN"

type Level string

const (
	LevelAccount  Level = "account"
	LevelCampaign Level = "campaign"
	LevelAdSet    Level = "adset"
	LevelAd       Level = "ad"
	LevelCountry  Level = "country"
)

// ConversionEvents is the bundle of WhatsApp conversation counters. Counters
// are never negative; the normalizer rejects rows that would make them so.
type ConversionEvents struct {
	MessagingConversationStarted       int64 `json:"messaging_conversation_started"`
	OnsiteMessagingConversationStarted int64 `json:"onsite_conversion_messaging_conversation_started"`
}

func (e ConversionEvents) Total() int64 {
	return e.MessagingConversationStarted + e.OnsiteMessagingConversationStarted
}

// MetricRecord is one entity over the reporting window. Clicks may exceed
// impressions when the source says so; nothing here corrects it.
type MetricRecord struct {
	Name          string             `json:"name"`
	Level         Level              `json:"level"`
	Spend         float64            `json:"spend"`
	Impressions   int64              `json:"impressions"`
	Clicks        int64              `json:"clicks"`
	Reach         *int64             `json:"reach,omitempty"`
	Actions       map[string]int64   `json:"actions"`
	CostPerAction map[string]float64 `json:"cost_per_action"`
	Events        ConversionEvents   `json:"whatsapp_events"`

	AccountID  string `json:"account_id,omitempty"`
	CampaignID string `json:"campaign_id,omitempty"`
	AdSetID    string `json:"adset_id,omitempty"`
	AdID       string `json:"ad_id,omitempty"`

	// campaign
	Objective string `json:"objective,omitempty"`
	// ad set
	DailyBudget *float64          `json:"daily_budget,omitempty"`
	BidStrategy string            `json:"bid_strategy,omitempty"`
	Targeting   map[string]string `json:"targeting,omitempty"`
	// ad
	CreativeID       string `json:"creative_id,omitempty"`
	CTAType          string `json:"cta_type,omitempty"`
	WhatsAppDeepLink string `json:"whatsapp_deep_link,omitempty"`
}

// DerivedRates are recomputed from a MetricRecord on demand.
type DerivedRates struct {
	CPR      float64 `json:"cpr"`
	CTR      float64 `json:"ctr"`
	ConvRate float64 `json:"conv_rate"`
}

// Decomposition breaks CPR into display-rounded diagnostic parts.
type Decomposition struct {
	Entity                string  `json:"entity"`
	AuctionPressureCPM    float64 `json:"auction_pressure_cpm"`
	SignalQualityCTR      float64 `json:"signal_quality_ctr"`
	ConversionProbability float64 `json:"conversion_probability"`
}

// SegmentRow is one raw country-breakdown row after counter extraction.
type SegmentRow struct {
	Country     string
	Spend       float64
	Impressions int64
	Clicks      int64
	Events      ConversionEvents
}

type SegmentPerformance struct {
	Country     string           `json:"country"`
	Spend       float64          `json:"spend"`
	Impressions int64            `json:"impressions"`
	Clicks      int64            `json:"clicks"`
	Events      ConversionEvents `json:"whatsapp_events"`
	CPR         float64          `json:"cpr"`
	CTR         float64          `json:"ctr"`
	ConvRate    float64          `json:"conv_rate"`
}

type Action string

const (
	ActionScale       Action = "SCALE"
	ActionStabilize   Action = "STABILIZE"
	ActionRestructure Action = "RESTRUCTURE"
	ActionTerminate   Action = "TERMINATE" // reserved, no rule emits it
)

type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

type Decision struct {
	Entity               string  `json:"entity"`
	Action               Action  `json:"decision"`
	Justification        string  `json:"justification"`
	RiskLevel            Risk    `json:"risk_level"`
	ExpectedCPRChangePct float64 `json:"expected_cpr_change_pct"`
	LearningResetRisk    Risk    `json:"learning_reset_risk"`
}

type OptimizationRequest struct {
	AccessToken string   `json:"access_token"`
	AdAccountID string   `json:"ad_account_id"`
	AdIDs       []string `json:"ad_ids,omitempty"`
	AdSetIDs    []string `json:"adset_ids,omitempty"`
	CampaignIDs []string `json:"campaign_ids,omitempty"`
}

type OptimizationResponse struct {
	Status          string               `json:"status"`
	Account         MetricRecord         `json:"account"`
	Baseline        DerivedRates         `json:"baseline"`
	Entities        []MetricRecord       `json:"entities"`
	Diagnostics     []Decomposition      `json:"diagnostics"`
	CountryAnalysis []SegmentPerformance `json:"country_analysis"`
	Decisions       []Decision           `json:"decisions"`
	AIAnalysis      *string              `json:"ai_analysis"`
}
