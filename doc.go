// Package i94dw builds a star-schema warehouse from the I-94 arrival records.
//
// A transform run reads the raw immigration records (parquet or CSV) and five
// reference datasets, fills the known nulls with fixed defaults, derives typed
// columns, projects one fact and seven dimension tables, and writes each as
// CSV under a local directory, S3 or GCS. A warehouse run then recreates the
// tables in Redshift and loads the files with COPY.
//
// The command lives in cmd/i94dw; the stages are in pkg/transform,
// pkg/output, pkg/quality and pkg/warehouse, orchestrated by
// internal/pipeline.
package i94dw
