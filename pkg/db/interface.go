package db

import "database/sql"

// DBProvider exposes a sql.DB handle so PostgresClient and SupabaseClient can
// back the same ResultStore.
type DBProvider interface {
	DB() *sql.DB
}
