// Package liftlog holds assets embedded into the binary.
package liftlog

import "embed"

// MigrationsFS contains the SQL schema migrations.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
