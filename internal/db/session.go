package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/range.report/internal/ranging"
)

// Session groups the frames recorded by one detector run under a single ID,
// together with the effective configuration and the calibration it used.
type Session struct {
	ID            string
	CalibrationID *string
	ConfigJSON    string
	StartedAt     time.Time
}

// FrameRecord is one processed frame as stored: the frame-level flags plus
// the ranked detections.
type FrameRecord struct {
	FrameIndex        int64
	TemperatureC      float64
	NearEdge          bool
	CalibrationNeeded bool
	DistancesM        []float64
	StrengthsDB       []float64
}

// CreateSession opens a new recording session. calibrationID may be empty
// when the detector ran on a freshly captured, unsaved calibration.
func (db *DB) CreateSession(cfg ranging.DetectorConfig, calibrationID string) (*Session, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session config: %w", err)
	}

	s := &Session{
		ID:         uuid.NewString(),
		ConfigJSON: string(cfgJSON),
		StartedAt:  db.clock.Now().UTC(),
	}
	if calibrationID != "" {
		s.CalibrationID = &calibrationID
	}

	_, err = db.Exec(
		`INSERT INTO sessions (id, calibration_id, config_json, started_at_ns) VALUES (?, ?, ?, ?)`,
		s.ID, s.CalibrationID, s.ConfigJSON, s.StartedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// RecordFrame stores one detector result under the session. Frame indices
// are assigned by the caller and must be unique per session.
func (db *DB) RecordFrame(sessionID string, frameIndex int64, res *ranging.DetectorResult) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin frame transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO frames (session_id, frame_index, temperature_c, near_edge, calibration_needed, recorded_at_ns)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, frameIndex, res.TemperatureC, boolToInt(res.NearEdge), boolToInt(res.CalibrationNeeded),
		db.clock.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record frame %d: %w", frameIndex, err)
	}

	for i := range res.DistancesM {
		_, err = tx.Exec(
			`INSERT INTO detections (session_id, frame_index, peak_index, distance_m, strength_db)
			 VALUES (?, ?, ?, ?, ?)`,
			sessionID, frameIndex, i, res.DistancesM[i], res.StrengthsDB[i],
		)
		if err != nil {
			return fmt.Errorf("failed to record detection %d of frame %d: %w", i, frameIndex, err)
		}
	}

	return tx.Commit()
}

// SessionFrames returns the session's frames in frame order, each with its
// detections in rank order.
func (db *DB) SessionFrames(sessionID string) ([]FrameRecord, error) {
	rows, err := db.Query(
		`SELECT frame_index, temperature_c, near_edge, calibration_needed
		 FROM frames WHERE session_id = ? ORDER BY frame_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load frames: %w", err)
	}
	defer rows.Close()

	var frames []FrameRecord
	index := make(map[int64]int)
	for rows.Next() {
		var f FrameRecord
		var nearEdge, calNeeded int
		if err := rows.Scan(&f.FrameIndex, &f.TemperatureC, &nearEdge, &calNeeded); err != nil {
			return nil, err
		}
		f.NearEdge = nearEdge != 0
		f.CalibrationNeeded = calNeeded != 0
		index[f.FrameIndex] = len(frames)
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	det, err := db.Query(
		`SELECT frame_index, distance_m, strength_db
		 FROM detections WHERE session_id = ? ORDER BY frame_index, peak_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load detections: %w", err)
	}
	defer det.Close()

	for det.Next() {
		var frameIndex int64
		var distance, strength float64
		if err := det.Scan(&frameIndex, &distance, &strength); err != nil {
			return nil, err
		}
		i, ok := index[frameIndex]
		if !ok {
			return nil, fmt.Errorf("detection references unknown frame %d", frameIndex)
		}
		frames[i].DistancesM = append(frames[i].DistancesM, distance)
		frames[i].StrengthsDB = append(frames[i].StrengthsDB, strength)
	}
	if err := det.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
