// Package migrations embeds the SQL schema for the Postgres cache backend.
package migrations

import "embed"

// FS holds the golang-migrate up and down files.
//
//go:embed *.sql
var FS embed.FS
