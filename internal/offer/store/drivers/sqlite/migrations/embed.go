// Package migrations embeds the sqlite schema migration files so a single
// binary can bring its database up to date.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
