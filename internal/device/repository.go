package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the storage format for device timestamps. It is fixed
// width so that lexical order in SQLite matches chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// Repository defines owner-scoped device persistence.
//
// Every method that addresses a single device takes the owner ID as well as
// the device ID; there is no lookup by ID alone. A device that is missing or
// owned by someone else yields ErrNotFoundOrUnauthorized.
type Repository interface {
	// Create inserts a new device.
	// Returns ErrDeviceExists if the ID is already taken.
	Create(ctx context.Context, device *Device) error

	// Get returns the device with id if ownerID owns it.
	Get(ctx context.Context, ownerID, id string) (*Device, error)

	// List returns the owner's devices matching filter in insertion order.
	List(ctx context.Context, ownerID string, filter Filter) ([]Device, error)

	// Update loads the owner's device, passes it to mutate and writes the
	// result back in a single transaction. Returns the stored device.
	Update(ctx context.Context, ownerID, id string, mutate func(*Device)) (*Device, error)

	// Delete removes the owner's device and returns the deleted record.
	// Logs referencing the device are removed with it.
	Delete(ctx context.Context, ownerID, id string) (*Device, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open connection with foreign keys enabled.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectDevice = `
	SELECT id, owner_id, name, type, status, last_active_at, created_at, updated_at
	FROM devices`

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, device *Device) error {
	now := time.Now().UTC()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = device.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (id, owner_id, name, type, status, last_active_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		device.ID,
		device.OwnerID,
		device.Name,
		device.Type,
		device.Status,
		nullableTime(device.LastActiveAt),
		formatTime(device.CreatedAt),
		formatTime(device.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting device: %w", err)
	}
	return nil
}

// Get returns the device with id if ownerID owns it.
func (r *SQLiteRepository) Get(ctx context.Context, ownerID, id string) (*Device, error) {
	return getDevice(ctx, r.db, ownerID, id)
}

// List returns the owner's devices matching filter.
func (r *SQLiteRepository) List(ctx context.Context, ownerID string, filter Filter) ([]Device, error) {
	var query strings.Builder
	query.WriteString(selectDevice)
	query.WriteString(" WHERE owner_id = ?")
	args := []any{ownerID}

	if filter.Type != "" {
		query.WriteString(" AND type = ?")
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		query.WriteString(" AND status = ?")
		args = append(args, filter.Status)
	}
	query.WriteString(" ORDER BY created_at, rowid")

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// Update applies mutate to the owner's device inside a transaction.
func (r *SQLiteRepository) Update(ctx context.Context, ownerID, id string, mutate func(*Device)) (*Device, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	device, err := getDevice(ctx, tx, ownerID, id)
	if err != nil {
		return nil, err
	}

	mutate(device)
	// Identity fields are not writable through an update.
	device.ID, device.OwnerID = id, ownerID
	device.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE devices
		SET name = ?, type = ?, status = ?, last_active_at = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		device.Name,
		device.Type,
		device.Status,
		nullableTime(device.LastActiveAt),
		formatTime(device.UpdatedAt),
		id,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating device: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing device update: %w", err)
	}
	return device, nil
}

// Delete removes the owner's device and returns it.
func (r *SQLiteRepository) Delete(ctx context.Context, ownerID, id string) (*Device, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	device, err := getDevice(ctx, tx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM devices WHERE id = ? AND owner_id = ?", id, ownerID); err != nil {
		return nil, fmt.Errorf("deleting device: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing device delete: %w", err)
	}
	return device, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getDevice(ctx context.Context, q queryer, ownerID, id string) (*Device, error) {
	row := q.QueryRowContext(ctx, selectDevice+" WHERE id = ? AND owner_id = ?", id, ownerID)
	device, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("querying device: %w", err)
	}
	return device, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(scanner rowScanner) (*Device, error) {
	var d Device
	var lastActiveAt sql.NullString
	var createdAt, updatedAt string

	if err := scanner.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Name,
		&d.Type,
		&d.Status,
		&lastActiveAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if lastActiveAt.Valid {
		t, err := parseTime(lastActiveAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_active_at: %w", err)
		}
		d.LastActiveAt = &t
	}
	return &d, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// nullableTime returns a sql.NullString for optional timestamps.
func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
