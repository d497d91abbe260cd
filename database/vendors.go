package database

import "github.com/gaborage/go-dbaction/database/types"

// Re-export vendor identifiers so callers need only the database package.
const (
	PostgreSQL = types.PostgreSQL
	Oracle     = types.Oracle
	SQLite     = types.SQLite
)
