// Package migrations embeds SQL migration files for goose.
//
// Migration files follow the naming convention: YYYYMMDDHHMMSS_description.sql
// They create the job, contact and digest log tables and are applied in order
// at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
