// Package migrations embeds the SQL schema migrations.
package migrations

import "embed"

// FS holds the migration files for golang-migrate's iofs source.
//
//go:embed *.sql
var FS embed.FS
