// Package migrations embeds the goose SQL migrations so the binary can
// upgrade its own schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
