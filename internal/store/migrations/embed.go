// Package migrations embeds the SQL schema for the item store.
//
// There is a single schema version; a future change needs a new numbered
// file here and nothing else.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
