package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/leadtrack/attribution/internal/models"
)

// SQLiteRecorder appends conversion audit rows to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboard reads don't block the write path.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp           INTEGER NOT NULL,
			lead_id             TEXT NOT NULL,
			model               TEXT NOT NULL,
			conversion_value    REAL,
			touch_points        INTEGER,
			first_touch_channel TEXT,
			last_touch_channel  TEXT,
			channel_credits     TEXT,
			source_credits      TEXT,
			campaign_credits    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_ts ON conversions(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_lead ON conversions(lead_id)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordConversion(j *models.LeadJourney, model string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	channel, _ := json.Marshal(j.ChannelCredits)
	source, _ := json.Marshal(j.SourceCredits)
	campaign, _ := json.Marshal(j.CampaignCredits)

	ts := time.Now().Unix()
	if j.ConversionDate != nil {
		ts = j.ConversionDate.Unix()
	}

	_, err := r.db.Exec(`INSERT INTO conversions
		(timestamp, lead_id, model, conversion_value, touch_points,
		 first_touch_channel, last_touch_channel,
		 channel_credits, source_credits, campaign_credits)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		ts, j.LeadID, model, j.ConversionValue, len(j.TouchPoints),
		j.FirstTouchChannel, j.LastTouchChannel,
		string(channel), string(source), string(campaign),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
