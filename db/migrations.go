package db

import "embed"

// Migrations holds the goose SQL files so the binary can migrate without a checkout.
//
//go:embed migrations/*.sql
var Migrations embed.FS
