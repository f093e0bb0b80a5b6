package report

import (
	"math"
	"testing"
	"time"

	"github.com/leadtrack/attribution/internal/attribution"
	"github.com/leadtrack/attribution/internal/models"
	"github.com/leadtrack/attribution/internal/store"
)

func tp(ts time.Time, channel, campaign string) models.TouchPoint {
	return models.TouchPoint{
		Timestamp: ts,
		Channel:   channel,
		Source:    channel + "_src",
		Medium:    "organic",
		Campaign:  campaign,
	}
}

func recentWindow() (time.Time, time.Time) {
	now := time.Now()
	return now.Add(-time.Hour), now.Add(time.Hour)
}

func TestChannelPerformanceSingleTouch(t *testing.T) {
	st := store.NewMemoryStore(nil)
	st.AddTouchPoint("L1", tp(time.Now().Add(-time.Hour), "email", ""))
	st.RecordConversion("L1", 1000, nil)

	from, to := recentWindow()
	rows := NewService(st).ChannelPerformance(from, to)
	if len(rows) != 1 {
		t.Fatalf("expected 1 channel row, got %d", len(rows))
	}
	row := rows[0]
	if row.Channel != "email" || row.Conversions != 1 {
		t.Fatalf("unexpected row %+v", row)
	}
	if math.Abs(row.Credit-1.0) > 1e-9 || math.Abs(row.Value-1000) > 1e-9 {
		t.Errorf("credit=%v value=%v, want 1.0 and 1000", row.Credit, row.Value)
	}
	if row.FirstTouchConversions != 1 || row.LastTouchConversions != 1 {
		t.Errorf("first/last touch counts: %+v", row)
	}
}

func TestChannelPerformanceSplitsValueByCredit(t *testing.T) {
	st := store.NewMemoryStore(nil)
	base := time.Now().Add(-time.Hour)
	st.AddTouchPoint("L1", tp(base, "google", ""))
	st.AddTouchPoint("L1", tp(base.Add(time.Minute), "email", ""))
	linear, _ := attribution.Parse("linear")
	st.RecordConversion("L1", 1000, linear)

	from, to := recentWindow()
	rows := NewService(st).ChannelPerformance(from, to)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if math.Abs(row.Value-500) > 1e-9 {
			t.Errorf("channel %s value = %v, want 500", row.Channel, row.Value)
		}
	}
}

func TestChannelPerformanceWindowExcludes(t *testing.T) {
	st := store.NewMemoryStore(nil)
	st.AddTouchPoint("L1", tp(time.Now().Add(-time.Hour), "email", ""))
	st.RecordConversion("L1", 1000, nil)

	now := time.Now()
	rows := NewService(st).ChannelPerformance(now.AddDate(0, 0, -2), now.AddDate(0, 0, -1))
	if len(rows) != 0 {
		t.Fatalf("conversion outside window must not appear, got %d rows", len(rows))
	}
}

func TestCampaignPerformance(t *testing.T) {
	st := store.NewMemoryStore(nil)
	base := time.Now().Add(-time.Hour)
	st.AddTouchPoint("L1", tp(base, "google", "spring_promo"))
	st.AddTouchPoint("L1", tp(base.Add(time.Minute), "email", ""))
	linear, _ := attribution.Parse("linear")
	st.RecordConversion("L1", 1000, linear)

	from, to := recentWindow()
	rows := NewService(st).CampaignPerformance(from, to)
	if len(rows) != 1 {
		t.Fatalf("expected 1 campaign row, got %d", len(rows))
	}
	row := rows[0]
	if row.Campaign != "spring_promo" || math.Abs(row.Credit-0.5) > 1e-9 || math.Abs(row.Value-500) > 1e-9 {
		t.Fatalf("unexpected campaign row %+v", row)
	}
}

func TestROIByChannel(t *testing.T) {
	st := store.NewMemoryStore(nil)
	st.AddTouchPoint("L1", tp(time.Now().Add(-time.Hour), "email", ""))
	st.RecordConversion("L1", 1000, nil)

	costs := map[string]float64{
		"email": 500, // converting channel
		"print": 300, // spend with no conversions
	}
	from, to := recentWindow()
	rows := NewService(st).ROIByChannel(costs, from, to)
	if len(rows) != 2 {
		t.Fatalf("expected rows for both cost-side and revenue-side channels, got %d", len(rows))
	}

	byChannel := map[string]models.ChannelROI{}
	for _, r := range rows {
		byChannel[r.Channel] = r
	}

	email := byChannel["email"]
	if math.Abs(email.Profit-500) > 1e-9 || math.Abs(email.ROIPercent-100) > 1e-9 {
		t.Errorf("email roi row %+v", email)
	}
	if math.Abs(email.CostPerConversion-500) > 1e-9 {
		t.Errorf("email cost per conversion = %v, want 500", email.CostPerConversion)
	}

	costOnly := byChannel["print"]
	if math.Abs(costOnly.ROIPercent-(-100)) > 1e-9 {
		t.Errorf("cost-only channel roi = %v, want -100", costOnly.ROIPercent)
	}
	if costOnly.CostPerConversion != 0 {
		t.Errorf("zero conversions must not divide: %+v", costOnly)
	}
}

func TestROIZeroCostNeverDivides(t *testing.T) {
	st := store.NewMemoryStore(nil)
	st.AddTouchPoint("L1", tp(time.Now().Add(-time.Hour), "email", ""))
	st.RecordConversion("L1", 1000, nil)

	from, to := recentWindow()
	rows := NewService(st).ROIByChannel(map[string]float64{}, from, to)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].ROIPercent != 0 {
		t.Errorf("zero cost must yield roi 0, got %v", rows[0].ROIPercent)
	}
}

func TestConversionPaths(t *testing.T) {
	st := store.NewMemoryStore(nil)
	base := time.Now().Add(-time.Hour)
	for i, lead := range []string{"L1", "L2"} {
		off := time.Duration(i) * time.Second
		st.AddTouchPoint(lead, tp(base.Add(off), "google", ""))
		st.AddTouchPoint(lead, tp(base.Add(off+time.Minute), "email", ""))
		st.AddTouchPoint(lead, tp(base.Add(off+2*time.Minute), "direct", ""))
	}
	st.RecordConversion("L1", 1000, nil)
	st.RecordConversion("L2", 2000, nil)

	rows := NewService(st).ConversionPaths(10)
	if len(rows) != 1 {
		t.Fatalf("expected 1 path group, got %d", len(rows))
	}
	row := rows[0]
	if row.Path != "google > email > direct" {
		t.Errorf("path = %q", row.Path)
	}
	if row.Count != 2 || row.TotalValue != 3000 || row.AvgTouchPoints != 3 {
		t.Errorf("unexpected path row %+v", row)
	}
}

func TestConversionPathsLimit(t *testing.T) {
	st := store.NewMemoryStore(nil)
	base := time.Now().Add(-time.Hour)
	channels := []string{"google", "email", "direct"}
	for i, ch := range channels {
		lead := "L" + ch
		st.AddTouchPoint(lead, tp(base.Add(time.Duration(i)*time.Second), ch, ""))
		st.RecordConversion(lead, 100, nil)
	}

	rows := NewService(st).ConversionPaths(2)
	if len(rows) != 2 {
		t.Fatalf("expected limit to cap groups at 2, got %d", len(rows))
	}
}

func TestTimeToConversionBuckets(t *testing.T) {
	st := store.NewMemoryStore(nil)
	for i, daysAgo := range []int{0, 5, 20, 40} {
		lead := []string{"L0", "L5", "L20", "L40"}[i]
		ts := time.Now().Add(-time.Duration(daysAgo) * 24 * time.Hour).Add(-time.Minute)
		st.AddTouchPoint(lead, tp(ts, "email", ""))
		st.RecordConversion(lead, 100, nil)
	}

	got := NewService(st).TimeToConversion()
	if got.Journeys != 4 {
		t.Fatalf("expected 4 journeys, got %d", got.Journeys)
	}
	if got.SameDay != 1 || got.Within7Days != 2 || got.Within30Days != 3 || got.Over30Days != 1 {
		t.Fatalf("buckets = %+v", got)
	}
	if got.MinDays != 0 || got.MaxDays != 40 || got.MedianDays != 20 {
		t.Errorf("min/median/max = %d/%d/%d", got.MinDays, got.MedianDays, got.MaxDays)
	}
	if math.Abs(got.AverageDays-16.25) > 1e-9 {
		t.Errorf("average days = %v, want 16.25", got.AverageDays)
	}
}

func TestEmptyReports(t *testing.T) {
	svc := NewService(store.NewMemoryStore(nil))

	if rows := svc.ChannelPerformance(time.Time{}, time.Time{}); len(rows) != 0 {
		t.Errorf("channel performance over empty store: %v", rows)
	}
	if rows := svc.CampaignPerformance(time.Time{}, time.Time{}); len(rows) != 0 {
		t.Errorf("campaign performance over empty store: %v", rows)
	}
	if rows := svc.ConversionPaths(0); len(rows) != 0 {
		t.Errorf("paths over empty store: %v", rows)
	}
	if got := svc.TimeToConversion(); got != (models.TimeToConversion{}) {
		t.Errorf("time to conversion over empty store: %+v", got)
	}
}
