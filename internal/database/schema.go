package database

import _ "embed"

// Schema is the DDL for an empty database. Used by the seed tool and the
// integration suite.
//
//go:embed schema.sql
var Schema string
