// Package migrations embeds the goose migrations of the Remote API database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
