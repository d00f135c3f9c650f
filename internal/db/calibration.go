package db

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/range.report/internal/ranging"
)

// ErrNoCalibration is returned when the store holds no calibration rows.
var ErrNoCalibration = errors.New("no stored calibration")

// CalibrationRecord is one persisted calibration artifact set. The full
// ranging.CalibrationState travels as a compressed gob blob; the indexed
// columns carry just enough to pick a record without decoding it.
type CalibrationRecord struct {
	ID           string
	Stage        string
	TemperatureC float64
	OffsetM      float64
	State        *ranging.CalibrationState
	CreatedAt    time.Time
}

// calibrationBlob mirrors ranging.CalibrationState for gob encoding. gob has
// no complex type support, so the leakage snapshot is split into real and
// imaginary vectors.
type calibrationBlob struct {
	Stage int

	NoiseFloor        []float64
	NoiseTemperatureC float64

	OffsetM            float64
	OffsetTemperatureC float64

	LeakageI               []float64
	LeakageQ               []float64
	LoopbackPhaseRef       float64
	CloseRangeTemperatureC float64

	RecordedMean         []float64
	RecordedStd          []float64
	RecordedTemperatureC float64
}

func encodeCalibrationState(st *ranging.CalibrationState) ([]byte, error) {
	blob := calibrationBlob{
		Stage:                  int(st.Stage),
		NoiseFloor:             st.NoiseFloor,
		NoiseTemperatureC:      st.NoiseTemperatureC,
		OffsetM:                st.OffsetM,
		OffsetTemperatureC:     st.OffsetTemperatureC,
		LoopbackPhaseRef:       st.LoopbackPhaseRef,
		CloseRangeTemperatureC: st.CloseRangeTemperatureC,
		RecordedMean:           st.RecordedMean,
		RecordedStd:            st.RecordedStd,
		RecordedTemperatureC:   st.RecordedTemperatureC,
	}
	if len(st.LeakageIQ) > 0 {
		blob.LeakageI = make([]float64, len(st.LeakageIQ))
		blob.LeakageQ = make([]float64, len(st.LeakageIQ))
		for i, v := range st.LeakageIQ {
			blob.LeakageI[i] = real(v)
			blob.LeakageQ[i] = imag(v)
		}
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(zw).Encode(&blob); err != nil {
		return nil, fmt.Errorf("failed to encode calibration state: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish calibration blob: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeCalibrationState(data []byte) (*ranging.CalibrationState, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open calibration blob: %w", err)
	}
	var blob calibrationBlob
	if err := gob.NewDecoder(zr).Decode(&blob); err != nil {
		return nil, fmt.Errorf("failed to decode calibration state: %w", err)
	}
	if err := zr.Close(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to close calibration blob: %w", err)
	}

	st := &ranging.CalibrationState{
		Stage:                  ranging.CalibrationStage(blob.Stage),
		NoiseFloor:             blob.NoiseFloor,
		NoiseTemperatureC:      blob.NoiseTemperatureC,
		OffsetM:                blob.OffsetM,
		OffsetTemperatureC:     blob.OffsetTemperatureC,
		LoopbackPhaseRef:       blob.LoopbackPhaseRef,
		CloseRangeTemperatureC: blob.CloseRangeTemperatureC,
		RecordedMean:           blob.RecordedMean,
		RecordedStd:            blob.RecordedStd,
		RecordedTemperatureC:   blob.RecordedTemperatureC,
	}
	if len(blob.LeakageI) > 0 {
		st.LeakageIQ = make([]complex128, len(blob.LeakageI))
		for i := range blob.LeakageI {
			st.LeakageIQ[i] = complex(blob.LeakageI[i], blob.LeakageQ[i])
		}
	}
	return st, nil
}

// SaveCalibration persists a calibration state and returns its record ID.
func (db *DB) SaveCalibration(st *ranging.CalibrationState) (string, error) {
	if st == nil {
		return "", errors.New("nil calibration state")
	}
	artifact, err := encodeCalibrationState(st)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = db.Exec(
		`INSERT INTO calibrations (id, stage, temperature_c, offset_m, artifact, created_at_ns)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, st.Stage.String(), st.NoiseTemperatureC, st.OffsetM, artifact, db.clock.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save calibration: %w", err)
	}
	return id, nil
}

// LatestCalibration loads the most recently saved calibration record, or
// ErrNoCalibration when none exists.
func (db *DB) LatestCalibration() (*CalibrationRecord, error) {
	row := db.QueryRow(
		`SELECT id, stage, temperature_c, offset_m, artifact, created_at_ns
		 FROM calibrations ORDER BY created_at_ns DESC, id DESC LIMIT 1`)
	return scanCalibration(row)
}

// CalibrationByID loads one calibration record by its ID.
func (db *DB) CalibrationByID(id string) (*CalibrationRecord, error) {
	row := db.QueryRow(
		`SELECT id, stage, temperature_c, offset_m, artifact, created_at_ns
		 FROM calibrations WHERE id = ?`, id)
	return scanCalibration(row)
}

func scanCalibration(row *sql.Row) (*CalibrationRecord, error) {
	var rec CalibrationRecord
	var artifact []byte
	var createdNs int64
	err := row.Scan(&rec.ID, &rec.Stage, &rec.TemperatureC, &rec.OffsetM, &artifact, &createdNs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoCalibration
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load calibration: %w", err)
	}
	rec.CreatedAt = time.Unix(0, createdNs).UTC()
	rec.State, err = decodeCalibrationState(artifact)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
