package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadtrack/attribution/internal/attribution"
	"github.com/leadtrack/attribution/internal/ingest"
	"github.com/leadtrack/attribution/internal/models"
	"github.com/leadtrack/attribution/internal/recorder"
	"github.com/leadtrack/attribution/internal/report"
	"github.com/leadtrack/attribution/internal/store"
	"github.com/leadtrack/attribution/internal/utils"
)

type touchPointReq struct {
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

type conversionReq struct {
	LeadID string  `json:"lead_id"`
	Value  float64 `json:"value"`
	Model  string  `json:"model"`
}

func NewRouter(log *slog.Logger, st *store.MemoryStore, rep *report.Service, etl *ingest.ETL, rec recorder.Recorder) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.Post("/ingest/run", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("since")
		var since *time.Time
		if q != "" {
			if t, err := time.Parse("2006-01-02", q); err == nil {
				since = &t
			}
		}
		if err := etl.Run(r.Context(), since); err != nil {
			http.Error(w, err.Error(), 502)
			return
		}
		w.WriteHeader(202)
		w.Write([]byte("ingest started"))
	})

	mux.Post("/touchpoints", func(w http.ResponseWriter, r *http.Request) {
		var req touchPointReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.LeadID == "" || req.Channel == "" || req.Source == "" || req.Medium == "" {
			http.Error(w, "lead_id, channel, source and medium are required", 400)
			return
		}
		var ts time.Time
		if req.Timestamp != "" {
			t, err := time.Parse(time.RFC3339, req.Timestamp)
			if err != nil {
				http.Error(w, "bad timestamp (RFC3339)", 400)
				return
			}
			ts = t
		}
		st.AddTouchPoint(req.LeadID, models.TouchPoint{
			Timestamp:   ts,
			Channel:     req.Channel,
			Source:      req.Source,
			Medium:      req.Medium,
			Campaign:    req.Campaign,
			Content:     req.Content,
			LandingPage: req.LandingPage,
			Referrer:    req.Referrer,
		})
		w.WriteHeader(201)
	})

	mux.Post("/conversions", func(w http.ResponseWriter, r *http.Request) {
		var req conversionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.LeadID == "" {
			http.Error(w, "lead_id is required", 400)
			return
		}
		model, err := attribution.Parse(req.Model)
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		if !st.RecordConversion(req.LeadID, req.Value, model) {
			http.Error(w, "unknown lead or no touch points", 404)
			return
		}
		j, _ := st.Journey(req.LeadID)
		if err := rec.RecordConversion(&j, model.Name()); err != nil {
			log.Error("record conversion audit", slog.String("err", err.Error()))
		}
		writeJSON(w, j)
	})

	mux.Get("/journeys/{leadID}", func(w http.ResponseWriter, r *http.Request) {
		j, ok := st.Journey(chi.URLParam(r, "leadID"))
		if !ok {
			http.Error(w, "journey not found", 404)
			return
		}
		writeJSON(w, j)
	})

	mux.Get("/reports/channels", func(w http.ResponseWriter, r *http.Request) {
		from, to := parseRange(r)
		writeJSON(w, rep.ChannelPerformance(from, to))
	})

	mux.Get("/reports/campaigns", func(w http.ResponseWriter, r *http.Request) {
		from, to := parseRange(r)
		writeJSON(w, rep.CampaignPerformance(from, to))
	})

	mux.Get("/reports/roi", func(w http.ResponseWriter, r *http.Request) {
		from, to := parseRange(r)
		writeJSON(w, rep.ROIByChannel(nil, from, to))
	})

	mux.Get("/reports/paths", func(w http.ResponseWriter, r *http.Request) {
		limit := atoiDef(r.URL.Query().Get("limit"), 0)
		writeJSON(w, rep.ConversionPaths(limit))
	})

	mux.Get("/reports/time-to-conversion", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, rep.TimeToConversion())
	})

	return mux
}

func parseRange(r *http.Request) (time.Time, time.Time) {
	from, _ := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	var to time.Time
	if q := r.URL.Query().Get("to"); q != "" {
		if t, err := time.Parse("2006-01-02", q); err == nil {
			// inclusive end of day
			to = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return from, to
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
