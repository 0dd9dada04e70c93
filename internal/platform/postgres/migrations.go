package postgres

import "embed"

// Migrations holds the goose SQL migrations for the schema, rooted at "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that goose reads.
const MigrationsDir = "migrations"

// MigrationTableName is the table goose uses to track applied migrations.
const MigrationTableName = "schema_migrations"
