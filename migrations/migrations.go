// Package migrations embeds the versioned BigQuery schema files.
package migrations

import "embed"

// BigQuery holds bigquery/NNNN_name.sql. Files may use the {{PROJECT_ID}} and
// {{DATASET_ID}} placeholders.
//
//go:embed bigquery/*.sql
var BigQuery embed.FS
