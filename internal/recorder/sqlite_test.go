package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/leadtrack/attribution/internal/models"
)

func TestSQLiteRecorderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversions.db")
	rec, err := NewSQLiteRecorder(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rec.Close()

	now := time.Now()
	j := &models.LeadJourney{
		LeadID:            "L1",
		ConversionDate:    &now,
		ConversionValue:   1000,
		FirstTouchChannel: "google",
		LastTouchChannel:  "email",
		TouchPoints: []models.TouchPoint{
			{Timestamp: now.Add(-time.Hour), Channel: "google", Source: "google", Medium: "cpc"},
			{Timestamp: now, Channel: "email", Source: "newsletter", Medium: "email"},
		},
		ChannelCredits: map[string]float64{"google": 0.5, "email": 0.5},
	}

	if err := rec.RecordConversion(j, "linear"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := rec.RecordConversion(j, "linear"); err != nil {
		t.Fatalf("record again: %v", err)
	}

	var count int
	if err := rec.db.QueryRow("SELECT COUNT(*) FROM conversions WHERE lead_id = ?", "L1").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 audit rows, got %d", count)
	}

	var model, credits string
	err = rec.db.QueryRow("SELECT model, channel_credits FROM conversions WHERE lead_id = ? LIMIT 1", "L1").
		Scan(&model, &credits)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if model != "linear" {
		t.Errorf("model = %q", model)
	}
	if credits == "" || credits == "null" {
		t.Errorf("channel credits not persisted: %q", credits)
	}
}
