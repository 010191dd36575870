// db.go
//
// Database bootstrap for the Hanoi server: open SQLite with safe defaults
// and bring the schema up to date before any request is served.

package main

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hanoi/internal/records"
)

/**
 * openDatabase opens the SQLite file at path and applies pending migrations.
 * The handle is closed again if migrations fail.
 */
func openDatabase(path string) (*sql.DB, error) {
	db, err := records.Open(path)
	if err != nil {
		return nil, err
	}
	if err := records.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("path", path).Msg("database ready")
	return db, nil
}
