// Package migrations embeds the SQL migration files that create the thesis
// and profile tables, so the binary can create them without files on disk.
package migrations

import "embed"

// FS contains the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
