// Package liftlog embeds the database migrations shipped with the binaries.
package liftlog

import "embed"

//go:embed migrations/*.sql
var MigrationsFS embed.FS
