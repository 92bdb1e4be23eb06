// Package migrations embeds the SQL migration files for the activity
// database so the binary can migrate without the files on disk.
package migrations

import "embed"

// FS holds every *.sql file in this directory at its root.
//
//go:embed *.sql
var FS embed.FS
