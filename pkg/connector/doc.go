// Package connector groups the storage plumbing of the pipeline.
//
//   - core: the ObjectStore interface and location parsing shared by every
//     backend.
//
//   - registry: maps a URL scheme to the factory that opens a store for it.
//     Backends register themselves from init, so a binary picks up a backend
//     by importing its package.
//
//   - sources: readers that turn delimited text and parquet objects into
//     models.Table values.
//
//   - destinations: ObjectStore backends for the local filesystem, Amazon S3
//     and Google Cloud Storage.
package connector
