package store

import _ "embed"

// schemaDDL creates the run history tables and adds columns missing from
// databases written by older releases.
//
//go:embed schema.sql
var schemaDDL string
