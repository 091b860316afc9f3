package storage

import "database/sql"

// migrateV001 creates the key-value table the store persists through.
// Schema shape lives in the JSON values, not in SQL columns, so the
// engine's update logic stays identical across storage transports.
func migrateV001(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}
