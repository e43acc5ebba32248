// Package migrations embeds the goose SQL migrations for the user
// directory schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
