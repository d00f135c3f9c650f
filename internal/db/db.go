package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/range.report/internal/timeutil"
)

// DB wraps the sqlite handle used for calibration and measurement
// persistence. The schema is managed by the migrations under migrations/;
// NewDB only opens the file and sets connection pragmas. Row timestamps are
// taken from the clock, so tests can pin them with a timeutil.MockClock.
type DB struct {
	*sql.DB
	clock timeutil.Clock
}

func NewDB(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// WAL keeps readers (report tooling) from blocking the recording
	// writer; foreign keys are off by default in sqlite.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := sqldb.Exec(p); err != nil {
			sqldb.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	return &DB{DB: sqldb, clock: timeutil.RealClock{}}, nil
}
