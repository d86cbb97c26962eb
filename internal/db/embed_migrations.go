package db

import "embed"

// MigrationFS embeds the account directory schema from internal/db/migrations.
// Applied by cmd/migrate through the migrate runner.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
