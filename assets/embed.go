// assets/embed.go
//
// Files compiled into the server binary:
//   - bots/default.lua: the scripted bot used by "lua" AI seats.
//   - migrations/<dialect>/*.sql: hand archive schema, per database dialect.

package assets

import (
	"embed"
	"io/fs"
)

//go:embed bots/*.lua migrations
var FS embed.FS

// DefaultBot returns the built-in Lua bot script.
func DefaultBot() string {
	b, err := FS.ReadFile("bots/default.lua")
	if err != nil {
		return ""
	}
	return string(b)
}

// Migrations returns the migration files for dialect ("sqlite" or "postgres").
func Migrations(dialect string) (fs.FS, error) {
	return fs.Sub(FS, "migrations/"+dialect)
}
