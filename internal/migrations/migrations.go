// Package migrations embeds the goose SQL migrations for the import schema.
package migrations

import "embed"

//go:embed *.sql
var Embed embed.FS
