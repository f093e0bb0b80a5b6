package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	touchPointsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attribution_touch_points_ingested_total",
		Help: "Touch points accepted from the tracking feed.",
	})
	conversionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attribution_conversions_recorded_total",
		Help: "Conversions recorded from the CRM feed.",
	})
	recordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attribution_feed_records_skipped_total",
		Help: "Feed records skipped during ingest.",
	}, []string{"feed", "reason"})
	feedErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attribution_feed_errors_total",
		Help: "Feed fetch failures after retries.",
	}, []string{"feed"})
)
