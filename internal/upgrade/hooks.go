package upgrade

import (
	"context"
	"database/sql"
)

// Data migration hooks are registered here. Add a new hook when a schema
// migration needs a Go-side data transform the SQL migration can't express.
func init() {
	RegisterDataHook(2, "002_reprofile_screens_missing_profile_status", func(ctx context.Context, db *sql.DB) error {
		// Rows written before profile_status existed on the body JSONB (but
		// after the column was added with a NOT NULL default) carry a column
		// value out of sync with body->>'profile_status'. Flag them for
		// reprofiling rather than guessing a profile from stale column data.
		_, err := db.ExecContext(ctx, `
			UPDATE screens
			SET profile_status = 'REPROFILE'
			WHERE body->>'profile_status' IS DISTINCT FROM profile_status
		`)
		return err
	})
}
