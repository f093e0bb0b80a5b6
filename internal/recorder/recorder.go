package recorder

import "github.com/leadtrack/attribution/internal/models"

// Recorder appends an audit row for every recorded conversion. The engine's
// working state stays in memory; this is a write-only history for later
// inspection, not a storage backend.
type Recorder interface {
	RecordConversion(j *models.LeadJourney, model string) error
	Close() error
}
