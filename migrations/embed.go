// Package migrations embeds the SQL schema files. The server applies the
// *.up.sql files at startup when a database is configured; the
// integration-test containers apply the same files so tests run against the
// production schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
