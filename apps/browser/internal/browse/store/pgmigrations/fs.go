// Package pgmigrations embeds the SQL migrations for the browse_cache table.
package pgmigrations

import "embed"

// FS holds the *.sql migration files, read by platform/postgres.
//
//go:embed *.sql
var FS embed.FS
