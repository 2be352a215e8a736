// Package migrations holds the goose SQL migrations of the production schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Dir is the directory inside FS goose reads from.
const Dir = "."
