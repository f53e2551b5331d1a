// Package db persists the transmission history to a local sqlite database.
// One row per session: what was sent, at what frequency and power, how the
// start call went, and how the session ended. History is an event log only —
// nothing in it is read back into radio state at boot.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/fskstream/internal/radio"
)

type DB struct {
	*sql.DB
	log *log.Logger
}

// New opens (creating if needed) the transmission log at path.
func New(path string, logger *log.Logger) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = sqlDB.Exec(`
		CREATE TABLE IF NOT EXISTS transmissions (
			id             TEXT PRIMARY KEY,
			byte_count     INTEGER NOT NULL,
			frequency_mhz  DOUBLE NOT NULL,
			power_dbm      INTEGER NOT NULL,
			start_code     INTEGER NOT NULL,
			succeeded      BOOLEAN,
			started_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			finished_at    TIMESTAMP
		);
	`)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if logger == nil {
		logger = log.Default()
	}
	return &DB{DB: sqlDB, log: logger}, nil
}

// Transmission is one row of the history log.
type Transmission struct {
	ID           string     `json:"id"`
	ByteCount    int        `json:"byte_count"`
	FrequencyMHz float64    `json:"frequency_mhz"`
	PowerDBm     int        `json:"power_dbm"`
	StartCode    int        `json:"start_code"`
	Succeeded    *bool      `json:"succeeded"` // nil while in flight
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
}

// TransmissionStarted records a newly armed session. Implements
// txctl.Recorder; failures are logged rather than surfaced because the
// scheduler has no use for them.
func (d *DB) TransmissionStarted(id uuid.UUID, byteCount int, frequencyMHz float64, powerDBm int, start radio.ResultCode) {
	_, err := d.Exec(`
		INSERT INTO transmissions (id, byte_count, frequency_mhz, power_dbm, start_code)
		VALUES (?, ?, ?, ?, ?)`,
		id.String(), byteCount, frequencyMHz, powerDBm, int(start))
	if err != nil {
		d.log.Error("failed to record transmission start", "id", id, "err", err)
	}
}

// TransmissionFinished marks a session's outcome. Implements txctl.Recorder.
func (d *DB) TransmissionFinished(id uuid.UUID, succeeded bool) {
	_, err := d.Exec(`
		UPDATE transmissions
		SET succeeded = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		succeeded, id.String())
	if err != nil {
		d.log.Error("failed to record transmission finish", "id", id, "err", err)
	}
}

// RecentTransmissions returns up to limit sessions, newest first.
func (d *DB) RecentTransmissions(limit int) ([]Transmission, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.Query(`
		SELECT id, byte_count, frequency_mhz, power_dbm, start_code, succeeded, started_at, finished_at
		FROM transmissions
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transmission
	for rows.Next() {
		var t Transmission
		if err := rows.Scan(&t.ID, &t.ByteCount, &t.FrequencyMHz, &t.PowerDBm,
			&t.StartCode, &t.Succeeded, &t.StartedAt, &t.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
