// Package migrations esquema versionado de la base (golang-migrate).
package migrations

import "embed"

// FS archivos NNNNNN_nombre.{up,down}.sql embebidos en el binario.
//
//go:embed *.sql
var FS embed.FS
