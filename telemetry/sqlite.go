package telemetry

import (
	"fmt"
	"sync"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// defaultBatchSize bounds how many rows are buffered before a write.
const defaultBatchSize = 256

// SQLiteRecorder appends rows to a SQLite file, batched. Every recorder
// instance gets its own session id so several runs can share one database.
type SQLiteRecorder struct {
	db      *gorm.DB
	session string

	mu        sync.Mutex
	recording bool
	poses     []PoseRow
	wheels    []WheelRow
	// deferred holds the first batch-write failure from a threshold flush
	// inside Pose/Wheel until Flush or Close reports it.
	deferred error
}

// OpenSQLite opens (or creates) the database at path and migrates the log
// tables.
func OpenSQLite(path string) (*SQLiteRecorder, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&PoseRow{}, &WheelRow{}); err != nil {
		return nil, fmt.Errorf("telemetry: migrate %s: %w", path, err)
	}
	return &SQLiteRecorder{
		db:        db,
		session:   uuid.NewString(),
		recording: true,
	}, nil
}

// Session returns the id stamped on every row of this run.
func (r *SQLiteRecorder) Session() string { return r.session }

func (r *SQLiteRecorder) Pose(row PoseRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	row.Session = r.session
	r.poses = append(r.poses, row)
	if len(r.poses) >= defaultBatchSize {
		r.deferFlushErr(r.flushLocked())
	}
}

func (r *SQLiteRecorder) Wheel(row WheelRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	row.Session = r.session
	r.wheels = append(r.wheels, row)
	if len(r.wheels) >= defaultBatchSize {
		r.deferFlushErr(r.flushLocked())
	}
}

func (r *SQLiteRecorder) SetRecording(on bool) {
	r.mu.Lock()
	r.recording = on
	r.mu.Unlock()
}

func (r *SQLiteRecorder) deferFlushErr(err error) {
	if err != nil && r.deferred == nil {
		r.deferred = err
	}
}

// Flush writes all buffered rows out. A write failure from an earlier
// threshold flush takes precedence, so no error stays silent.
func (r *SQLiteRecorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	flushErr := r.flushLocked()
	if r.deferred != nil {
		err := r.deferred
		r.deferred = nil
		return err
	}
	return flushErr
}

func (r *SQLiteRecorder) flushLocked() error {
	if len(r.poses) > 0 {
		if err := r.db.CreateInBatches(r.poses, defaultBatchSize).Error; err != nil {
			return fmt.Errorf("telemetry: write pose rows: %w", err)
		}
		r.poses = r.poses[:0]
	}
	if len(r.wheels) > 0 {
		if err := r.db.CreateInBatches(r.wheels, defaultBatchSize).Error; err != nil {
			return fmt.Errorf("telemetry: write wheel rows: %w", err)
		}
		r.wheels = r.wheels[:0]
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
