package store

import (
	"sort"
	"sync"
	"time"

	"github.com/leadtrack/attribution/internal/attribution"
	"github.com/leadtrack/attribution/internal/models"
)

// MemoryStore owns the lead -> journey collection. It is the only component
// that creates or mutates journeys; readers get copies.
type MemoryStore struct {
	mu           sync.RWMutex
	journeys     map[string]*models.LeadJourney
	costs        map[string]float64
	seen         map[string]struct{} // per-record ingest idempotency
	defaultModel attribution.Model
}

func NewMemoryStore(defaultModel attribution.Model) *MemoryStore {
	if defaultModel == nil {
		defaultModel = attribution.Default
	}
	return &MemoryStore{
		journeys:     make(map[string]*models.LeadJourney),
		costs:        make(map[string]float64),
		seen:         make(map[string]struct{}),
		defaultModel: defaultModel,
	}
}

func (s *MemoryStore) DefaultModel() attribution.Model { return s.defaultModel }

// MarkSeen records an ingest key and reports whether it was new. Used to
// suppress feed redelivery, never to deduplicate genuine repeat interactions.
func (s *MemoryStore) MarkSeen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// AddTouchPoint appends a touch point to the lead's journey, creating the
// journey on first sight. Points arriving out of timestamp order are placed
// at their sorted position; equal timestamps keep arrival order. A zero
// timestamp defaults to now. Touch points are never deduplicated.
func (s *MemoryStore) AddTouchPoint(leadID string, tp models.TouchPoint) {
	if tp.Timestamp.IsZero() {
		tp.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.journeys[leadID]
	if !ok {
		j = &models.LeadJourney{LeadID: leadID}
		s.journeys[leadID] = j
	}

	idx := sort.Search(len(j.TouchPoints), func(i int) bool {
		return j.TouchPoints[i].Timestamp.After(tp.Timestamp)
	})
	j.TouchPoints = append(j.TouchPoints, models.TouchPoint{})
	copy(j.TouchPoints[idx+1:], j.TouchPoints[idx:])
	j.TouchPoints[idx] = tp

	// Caches always mirror the actual first and last points, so a
	// late-arriving earlier touch still becomes the first touch.
	first := j.TouchPoints[0]
	last := j.TouchPoints[len(j.TouchPoints)-1]
	j.FirstTouchChannel = first.Channel
	j.FirstTouchSource = first.Source
	j.FirstTouchCampaign = first.Campaign
	j.LastTouchChannel = last.Channel
	j.LastTouchSource = last.Source
	j.LastTouchCampaign = last.Campaign
}

// RecordConversion marks the lead's journey converted and computes its
// credit maps with the given model (nil selects the store default). Returns
// false when the lead is unknown or has no touch points. Calling it again
// recomputes the credits from scratch with the supplied model, which allows
// retrospective re-attribution.
func (s *MemoryStore) RecordConversion(leadID string, value float64, m attribution.Model) bool {
	if m == nil {
		m = s.defaultModel
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.journeys[leadID]
	if !ok || len(j.TouchPoints) == 0 {
		return false
	}

	now := time.Now()
	j.ConversionDate = &now
	j.ConversionValue = value
	applyCredits(j, m)
	return true
}

// Journey returns a copy of the lead's journey.
func (s *MemoryStore) Journey(leadID string) (models.LeadJourney, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.journeys[leadID]
	if !ok {
		return models.LeadJourney{}, false
	}
	return cloneJourney(j), true
}

// ConvertedInRange returns copies of every converted journey whose
// conversion date falls within [from, to]. Journeys converted without credit
// maps get them computed with the store default model first; a converted
// journey is never silently skipped for missing credits.
func (s *MemoryStore) ConvertedInRange(from, to time.Time) []models.LeadJourney {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LeadJourney
	for _, j := range s.journeys {
		if !j.Converted() {
			continue
		}
		if j.ConversionDate.Before(from) || j.ConversionDate.After(to) {
			continue
		}
		if len(j.ChannelCredits) == 0 && len(j.TouchPoints) > 0 {
			applyCredits(j, s.defaultModel)
		}
		out = append(out, cloneJourney(j))
	}
	return out
}

// Converted returns copies of every converted journey, unbounded by date.
func (s *MemoryStore) Converted() []models.LeadJourney {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.LeadJourney
	for _, j := range s.journeys {
		if j.Converted() {
			out = append(out, cloneJourney(j))
		}
	}
	return out
}

// SetChannelCosts replaces the spend map consumed by the ROI report.
func (s *MemoryStore) SetChannelCosts(costs map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costs = make(map[string]float64, len(costs))
	for ch, c := range costs {
		s.costs[ch] = c
	}
}

// ChannelCosts returns a copy of the spend map.
func (s *MemoryStore) ChannelCosts() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.costs))
	for ch, c := range s.costs {
		out[ch] = c
	}
	return out
}

func applyCredits(j *models.LeadJourney, m attribution.Model) {
	c := attribution.Distribute(j.TouchPoints, m)
	j.ChannelCredits = c.Channel
	j.SourceCredits = c.Source
	j.CampaignCredits = c.Campaign
}

func cloneJourney(j *models.LeadJourney) models.LeadJourney {
	out := *j
	out.TouchPoints = append([]models.TouchPoint(nil), j.TouchPoints...)
	if j.ConversionDate != nil {
		d := *j.ConversionDate
		out.ConversionDate = &d
	}
	out.ChannelCredits = cloneMap(j.ChannelCredits)
	out.SourceCredits = cloneMap(j.SourceCredits)
	out.CampaignCredits = cloneMap(j.CampaignCredits)
	return out
}

func cloneMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
