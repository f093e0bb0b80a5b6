// Package report implements the read-only aggregate reports over the
// journey collection: channel/campaign performance, ROI, conversion paths
// and time to conversion.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/leadtrack/attribution/internal/models"
	"github.com/leadtrack/attribution/internal/store"
)

// PathDelimiter joins channel names into a conversion path key.
const PathDelimiter = " > "

type Service struct{ st *store.MemoryStore }

func NewService(st *store.MemoryStore) *Service { return &Service{st: st} }

// window fills in the default reporting window: last 30 days up to now.
func window(from, to time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	return from, to
}

// ChannelPerformance rolls weighted credit and attributed value up per
// channel across every journey converted within [from, to]. Zero bounds
// default to the last 30 days.
func (s *Service) ChannelPerformance(from, to time.Time) []models.ChannelStats {
	from, to = window(from, to)
	stats := map[string]*models.ChannelStats{}

	for _, j := range s.st.ConvertedInRange(from, to) {
		for channel, credit := range j.ChannelCredits {
			cs, ok := stats[channel]
			if !ok {
				cs = &models.ChannelStats{Channel: channel}
				stats[channel] = cs
			}
			cs.Conversions++
			cs.Credit += credit
			cs.Value += j.ConversionValue * credit
			if j.FirstTouchChannel == channel {
				cs.FirstTouchConversions++
			}
			if j.LastTouchChannel == channel {
				cs.LastTouchConversions++
			}
		}
	}

	rows := make([]models.ChannelStats, 0, len(stats))
	for _, cs := range stats {
		rows = append(rows, *cs)
	}
	// orden determinista
	sort.Slice(rows, func(i, j int) bool { return rows[i].Channel < rows[j].Channel })
	return rows
}

// CampaignPerformance is the campaign-keyed counterpart. Journeys whose
// touch points carry no campaign contribute nothing.
func (s *Service) CampaignPerformance(from, to time.Time) []models.CampaignStats {
	from, to = window(from, to)
	stats := map[string]*models.CampaignStats{}

	for _, j := range s.st.ConvertedInRange(from, to) {
		for campaign, credit := range j.CampaignCredits {
			cs, ok := stats[campaign]
			if !ok {
				cs = &models.CampaignStats{Campaign: campaign}
				stats[campaign] = cs
			}
			cs.Conversions++
			cs.Credit += credit
			cs.Value += j.ConversionValue * credit
		}
	}

	rows := make([]models.CampaignStats, 0, len(stats))
	for _, cs := range stats {
		rows = append(rows, *cs)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Campaign < rows[j].Campaign })
	return rows
}

// ROIByChannel joins channel performance with the spend map. A nil cost map
// falls back to the spend feed held by the store. Channels present in either
// side are included, so spend on a channel with zero attributed conversions
// shows up as -100% ROI through the same formula, not a special case.
func (s *Service) ROIByChannel(costs map[string]float64, from, to time.Time) []models.ChannelROI {
	if costs == nil {
		costs = s.st.ChannelCosts()
	}
	perf := s.ChannelPerformance(from, to)

	byChannel := map[string]models.ChannelStats{}
	channels := map[string]struct{}{}
	for _, cs := range perf {
		byChannel[cs.Channel] = cs
		channels[cs.Channel] = struct{}{}
	}
	for ch := range costs {
		channels[ch] = struct{}{}
	}

	rows := make([]models.ChannelROI, 0, len(channels))
	for ch := range channels {
		stats := byChannel[ch]
		cost := costs[ch]
		revenue := stats.Value
		rows = append(rows, models.ChannelROI{
			Channel:           ch,
			Cost:              cost,
			Revenue:           revenue,
			Profit:            revenue - cost,
			ROIPercent:        safeDiv(revenue-cost, cost) * 100,
			CostPerConversion: safeDiv(cost, float64(stats.Conversions)),
			Conversions:       stats.Conversions,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Channel < rows[j].Channel })
	return rows
}

// ConversionPaths groups every converted journey by its exact channel
// sequence (repeats preserved) and returns the most frequent paths, count
// descending. Total value is the raw conversion value per journey, not
// fractional credit: the report measures path frequency, not attribution.
func (s *Service) ConversionPaths(limit int) []models.PathStats {
	if limit <= 0 {
		limit = 20
	}
	paths := map[string]*models.PathStats{}

	for _, j := range s.st.Converted() {
		channels := make([]string, len(j.TouchPoints))
		for i, tp := range j.TouchPoints {
			channels[i] = tp.Channel
		}
		key := strings.Join(channels, PathDelimiter)

		ps, ok := paths[key]
		if !ok {
			ps = &models.PathStats{Path: key}
			paths[key] = ps
		}
		ps.Count++
		ps.TotalValue += j.ConversionValue
		ps.AvgTouchPoints = len(j.TouchPoints)
	}

	rows := make([]models.PathStats, 0, len(paths))
	for _, ps := range paths {
		rows = append(rows, *ps)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Path < rows[j].Path
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// TimeToConversion aggregates whole days from first touch to conversion over
// every converted journey with at least one touch point. Buckets overlap:
// within_30_days contains within_7_days contains same_day.
func (s *Service) TimeToConversion() models.TimeToConversion {
	var days []int
	for _, j := range s.st.Converted() {
		if len(j.TouchPoints) == 0 {
			continue
		}
		d := int(j.ConversionDate.Sub(j.TouchPoints[0].Timestamp) / (24 * time.Hour))
		days = append(days, d)
	}
	if len(days) == 0 {
		return models.TimeToConversion{}
	}

	sort.Ints(days)
	out := models.TimeToConversion{
		Journeys:   len(days),
		MedianDays: days[len(days)/2],
		MinDays:    days[0],
		MaxDays:    days[len(days)-1],
	}
	var total int
	for _, d := range days {
		total += d
		if d == 0 {
			out.SameDay++
		}
		if d <= 7 {
			out.Within7Days++
		}
		if d <= 30 {
			out.Within30Days++
		}
		if d > 30 {
			out.Over30Days++
		}
	}
	out.AverageDays = float64(total) / float64(len(days))
	return out
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
