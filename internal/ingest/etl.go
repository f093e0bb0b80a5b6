// Package ingest pulls the external collaborator feeds (visitor tracking,
// CRM conversions, marketing spend) and feeds them into the journey store.
package ingest

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/leadtrack/attribution/internal/attribution"
	"github.com/leadtrack/attribution/internal/config"
	"github.com/leadtrack/attribution/internal/models"
	"github.com/leadtrack/attribution/internal/recorder"
	"github.com/leadtrack/attribution/internal/store"
)

type ETL struct {
	c   HTTPClient
	st  *store.MemoryStore
	rec recorder.Recorder
	log *slog.Logger
	cfg config.Config
}

func NewETL(c HTTPClient, st *store.MemoryStore, rec recorder.Recorder, log *slog.Logger, cfg config.Config) *ETL {
	return &ETL{c: c, st: st, rec: rec, log: log, cfg: cfg}
}

type trackingResp []struct {
	EventID     string `json:"event_id"`
	LeadID      string `json:"lead_id"`
	Timestamp   string `json:"timestamp"`
	Channel     string `json:"channel"`
	Source      string `json:"source"`
	Medium      string `json:"medium"`
	Campaign    string `json:"campaign"`
	Content     string `json:"content"`
	LandingPage string `json:"landing_page"`
	Referrer    string `json:"referrer"`
}

type crmResp []struct {
	LeadID string  `json:"lead_id"`
	Stage  string  `json:"stage"`
	Value  float64 `json:"value"`
	Model  string  `json:"model"`
}

type spendResp []struct {
	Channel string  `json:"channel"`
	Cost    float64 `json:"cost"`
}

// Run pulls each configured feed once. Touch events older than since are
// skipped. Feeds that are not configured are ignored.
func (e *ETL) Run(ctx context.Context, since *time.Time) error {
	if e.cfg.TrackingURL != "" {
		if err := e.runTracking(ctx, since); err != nil {
			feedErrors.WithLabelValues("tracking").Inc()
			return err
		}
	}
	if e.cfg.CrmURL != "" {
		if err := e.runCRM(ctx); err != nil {
			feedErrors.WithLabelValues("crm").Inc()
			return err
		}
	}
	if e.cfg.SpendURL != "" {
		if err := e.runSpend(ctx); err != nil {
			feedErrors.WithLabelValues("spend").Inc()
			return err
		}
	}
	e.log.Info("ingest complete")
	return nil
}

func (e *ETL) runTracking(ctx context.Context, since *time.Time) error {
	var resp trackingResp
	if err := getJSONWithRetry(ctx, e.c, e.cfg.TrackingURL, &resp); err != nil {
		return err
	}

	for _, r := range resp {
		leadID := strings.TrimSpace(r.LeadID)
		channel := norm(r.Channel)
		source := norm(r.Source)
		medium := norm(r.Medium)
		if leadID == "" || channel == "" || source == "" || medium == "" {
			recordsSkipped.WithLabelValues("tracking", "missing_field").Inc()
			continue
		}

		var ts time.Time
		if r.Timestamp != "" {
			t, err := time.Parse(time.RFC3339, r.Timestamp)
			if err != nil {
				recordsSkipped.WithLabelValues("tracking", "bad_timestamp").Inc()
				continue
			}
			ts = t
		}
		if since != nil && !ts.IsZero() && dayUTC(ts).Before(dayUTC(*since)) {
			recordsSkipped.WithLabelValues("tracking", "before_since").Inc()
			continue
		}

		// Replay protection only: a redelivered event id is dropped, a
		// genuine repeat interaction arrives as a new event and is counted.
		key := "touch|" + r.EventID
		if r.EventID == "" {
			key = "touch|" + leadID + "|" + r.Timestamp + "|" + channel + "|" + source
		}
		if !e.st.MarkSeen(key) {
			recordsSkipped.WithLabelValues("tracking", "replay").Inc()
			continue
		}

		e.st.AddTouchPoint(leadID, models.TouchPoint{
			Timestamp:   ts,
			Channel:     channel,
			Source:      source,
			Medium:      medium,
			Campaign:    strings.TrimSpace(r.Campaign),
			Content:     strings.TrimSpace(r.Content),
			LandingPage: strings.TrimSpace(r.LandingPage),
			Referrer:    strings.TrimSpace(r.Referrer),
		})
		touchPointsIngested.Inc()
	}
	return nil
}

func (e *ETL) runCRM(ctx context.Context) error {
	var resp crmResp
	if err := getJSONWithRetry(ctx, e.c, e.cfg.CrmURL, &resp); err != nil {
		return err
	}

	for _, r := range resp {
		leadID := strings.TrimSpace(r.LeadID)
		if leadID == "" {
			recordsSkipped.WithLabelValues("crm", "missing_field").Inc()
			continue
		}
		if stage := norm(r.Stage); stage != "" && stage != "closed_won" {
			recordsSkipped.WithLabelValues("crm", "not_closed_won").Inc()
			continue
		}

		model, err := attribution.Parse(norm(r.Model))
		if err != nil {
			e.log.Warn("unknown model in crm feed, using default",
				slog.String("lead_id", leadID), slog.String("model", r.Model))
			model = e.st.DefaultModel()
		}

		// Leave the record unconsumed when the lead has no journey yet, so
		// a conversion delivered ahead of its touch points is retried on
		// the next run instead of being remembered as seen.
		if _, ok := e.st.Journey(leadID); !ok {
			recordsSkipped.WithLabelValues("crm", "unknown_lead").Inc()
			e.log.Debug("conversion for lead with no touch points", slog.String("lead_id", leadID))
			continue
		}

		// A byte-identical conversion record is a feed replay; a changed
		// model or value is a deliberate re-attribution and goes through.
		key := "conv|" + leadID + "|" + model.Name() + "|" + formatValue(r.Value)
		if !e.st.MarkSeen(key) {
			recordsSkipped.WithLabelValues("crm", "replay").Inc()
			continue
		}

		if !e.st.RecordConversion(leadID, r.Value, model) {
			recordsSkipped.WithLabelValues("crm", "unknown_lead").Inc()
			continue
		}
		conversionsRecorded.Inc()

		if j, ok := e.st.Journey(leadID); ok {
			if err := e.rec.RecordConversion(&j, model.Name()); err != nil {
				e.log.Error("record conversion audit", slog.String("err", err.Error()))
			}
		}
	}
	return nil
}

func (e *ETL) runSpend(ctx context.Context) error {
	var resp spendResp
	if err := getJSONWithRetry(ctx, e.c, e.cfg.SpendURL, &resp); err != nil {
		return err
	}

	costs := make(map[string]float64, len(resp))
	for _, r := range resp {
		ch := norm(r.Channel)
		if ch == "" {
			recordsSkipped.WithLabelValues("spend", "missing_field").Inc()
			continue
		}
		costs[ch] += maxf(r.Cost)
	}
	e.st.SetChannelCosts(costs)
	return nil
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func dayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func maxf(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

func formatValue(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
