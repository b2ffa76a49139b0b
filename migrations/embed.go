// Package migrations embeds the schema migrations for both storage backends.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// SQLite returns the SQLite migration directory.
func SQLite() (fs.FS, error) {
	return fs.Sub(FS, "sqlite")
}

// Postgres returns the PostgreSQL migration directory.
func Postgres() (fs.FS, error) {
	return fs.Sub(FS, "postgres")
}
