// Package db embeds the SQL migrations for the social service schema.
package db

import "embed"

//go:embed migrations
var MigrationsFS embed.FS
