package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nerrad567/telemetry-core/internal/device"
)

// Repository is append-only log persistence. Every read is filtered by
// owner as well as device.
type Repository interface {
	// Append inserts an immutable log row.
	Append(ctx context.Context, log *Log) error

	// Recent returns up to limit logs for the device, newest first.
	// Logs with equal timestamps are returned in reverse insertion order.
	Recent(ctx context.Context, ownerID, deviceID string, limit int) ([]Log, error)

	// SumValues totals the value of the device's logs of kind event created
	// at or after since. Returns 0 when nothing matches.
	SumValues(ctx context.Context, ownerID, deviceID string, event Event, since time.Time) (float64, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed log repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Append inserts a log row.
func (r *SQLiteRepository) Append(ctx context.Context, log *Log) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO device_logs (id, device_id, owner_id, event, value, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		log.ID,
		log.DeviceID,
		log.OwnerID,
		string(log.Event),
		nullableFloat(log.Value),
		formatTime(log.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting log: %w", err)
	}
	return nil
}

// Recent returns the newest logs for the owner's device.
func (r *SQLiteRepository) Recent(ctx context.Context, ownerID, deviceID string, limit int) ([]Log, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, device_id, owner_id, event, value, created_at
		FROM device_logs
		WHERE owner_id = ? AND device_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`,
		ownerID, deviceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying logs: %w", err)
	}
	defer rows.Close()

	logs := []Log{}
	for rows.Next() {
		var l Log
		var event, createdAt string
		var value sql.NullFloat64
		if err := rows.Scan(&l.ID, &l.DeviceID, &l.OwnerID, &event, &value, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning log: %w", err)
		}
		l.Event = Event(event)
		if value.Valid {
			v := value.Float64
			l.Value = &v
		}
		if l.CreatedAt, err = time.Parse(device.TimestampLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating logs: %w", err)
	}
	return logs, nil
}

// SumValues totals matching log values inside the window.
func (r *SQLiteRepository) SumValues(ctx context.Context, ownerID, deviceID string, event Event, since time.Time) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(value), 0)
		FROM device_logs
		WHERE owner_id = ? AND device_id = ? AND event = ? AND created_at >= ?`,
		ownerID, deviceID, string(event), formatTime(since),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing log values: %w", err)
	}
	return total, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(device.TimestampLayout)
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
