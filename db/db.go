package db

import "embed"

// SQLite migrations live under sqlite/, Postgres migrations (golang-migrate
// naming, NNNN_name.up.sql / .down.sql) under postgres/.
//
//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)
