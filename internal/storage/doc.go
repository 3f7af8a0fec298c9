// Package storage defines the file store consumed by the ingestion pipeline
// and provides BlobStore, an implementation backed by a gocloud blob bucket
// (S3, GCS, local files, or in-memory for tests).
//
// Files are stored one object per file. The record id is written into the
// object's metadata at create time. Trashing a file moves its object under a
// ".trash/" prefix rather than deleting it outright.
package storage
