// Package database provides SQLite connectivity for the telemetry service.
//
// This package manages:
//   - Connection setup with WAL mode, busy timeout and foreign keys enforced
//   - Embedded, versioned schema migrations
//   - Health checks and lifecycle management
//
// All queries elsewhere use parameterised statements. The database file is
// restricted to 0600.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files live in the top-level migrations package, named
// YYYYMMDD_HHMMSS_description.up.sql with a matching .down.sql.
package database
