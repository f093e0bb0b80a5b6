package models

import "time"

// TouchPoint is one recorded marketing interaction for a lead. Immutable
// once created.
type TouchPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Channel     string    `json:"channel"`
	Source      string    `json:"source"`
	Medium      string    `json:"medium"`
	Campaign    string    `json:"campaign,omitempty"`
	Content     string    `json:"content,omitempty"`
	LandingPage string    `json:"landing_page,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
}

// LeadJourney holds the full touch-point history for one lead, ordered by
// timestamp ascending, plus the conversion outcome and the credit maps
// derived from it. Credit maps stay empty until a conversion is recorded.
type LeadJourney struct {
	LeadID          string       `json:"lead_id"`
	TouchPoints     []TouchPoint `json:"touch_points"`
	ConversionDate  *time.Time   `json:"conversion_date,omitempty"`
	ConversionValue float64      `json:"conversion_value"`

	FirstTouchChannel  string `json:"first_touch_channel"`
	FirstTouchSource   string `json:"first_touch_source"`
	FirstTouchCampaign string `json:"first_touch_campaign"`
	LastTouchChannel   string `json:"last_touch_channel"`
	LastTouchSource    string `json:"last_touch_source"`
	LastTouchCampaign  string `json:"last_touch_campaign"`

	ChannelCredits  map[string]float64 `json:"channel_credits"`
	SourceCredits   map[string]float64 `json:"source_credits"`
	CampaignCredits map[string]float64 `json:"campaign_credits"`
}

// Converted reports whether a conversion has been recorded for the journey.
func (j *LeadJourney) Converted() bool { return j.ConversionDate != nil }

// ChannelStats is the per-channel roll-up produced by the performance report.
// FirstTouch/LastTouch counts are unweighted full-credit conversions, kept
// next to the weighted figures for comparison.
type ChannelStats struct {
	Channel               string  `json:"channel"`
	Conversions           int     `json:"conversions"`
	Credit                float64 `json:"credit"`
	Value                 float64 `json:"value"`
	FirstTouchConversions int     `json:"first_touch_conversions"`
	LastTouchConversions  int     `json:"last_touch_conversions"`
}

// CampaignStats is the per-campaign roll-up. Touch points without a campaign
// contribute nothing here.
type CampaignStats struct {
	Campaign    string  `json:"campaign"`
	Conversions int     `json:"conversions"`
	Credit      float64 `json:"credit"`
	Value       float64 `json:"value"`
}

// ChannelROI combines attributed revenue with externally supplied spend.
type ChannelROI struct {
	Channel           string  `json:"channel"`
	Cost              float64 `json:"cost"`
	Revenue           float64 `json:"revenue"`
	Profit            float64 `json:"profit"`
	ROIPercent        float64 `json:"roi_percent"`
	CostPerConversion float64 `json:"cost_per_conversion"`
	Conversions       int     `json:"conversions"`
}

// PathStats groups converted journeys by their exact channel sequence.
// TotalValue is the raw sum of conversion values, not fractional credit.
type PathStats struct {
	Path           string  `json:"path"`
	Count          int     `json:"count"`
	TotalValue     float64 `json:"total_value"`
	AvgTouchPoints int     `json:"avg_touch_points"`
}

// TimeToConversion describes the distribution of whole days between first
// touch and conversion. Buckets are cumulative: within_30_days includes
// within_7_days and same_day.
type TimeToConversion struct {
	Journeys     int     `json:"journeys"`
	AverageDays  float64 `json:"average_days"`
	MedianDays   int     `json:"median_days"`
	MinDays      int     `json:"min_days"`
	MaxDays      int     `json:"max_days"`
	SameDay      int     `json:"same_day"`
	Within7Days  int     `json:"within_7_days"`
	Within30Days int     `json:"within_30_days"`
	Over30Days   int     `json:"over_30_days"`
}
