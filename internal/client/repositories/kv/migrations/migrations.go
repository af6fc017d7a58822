// Package migrations embeds the goose migration files for the on-device
// store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
