package recorder

import "github.com/leadtrack/attribution/internal/models"

// NoopRecorder is used when no database path is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordConversion(_ *models.LeadJourney, _ string) error { return nil }
func (n *NoopRecorder) Close() error                                           { return nil }
