package migrations

import "embed"

// Migrations contiene los archivos SQL aplicados por goose.
//
//go:embed *.sql
var Migrations embed.FS
