// Package migrations embeds the goose SQL migrations, one directory per
// supported dialect.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// For returns the migrations of one dialect directory ("postgres" or
// "sqlite") rooted at ".".
func For(dir string) (fs.FS, error) {
	return fs.Sub(Migrations, dir)
}
