// Package ingest materializes batches of remote files into a storage folder.
//
// SaveAll runs a bounded worker pool over a list of entries. Each entry is
// fetched (from its URL, a custom request, or a pre-fetched stream), checked
// against any file already stored at its target path, and created in the
// store only when the stored copy is absent or fails its integrity checks.
// The whole batch shares one absolute deadline; per-entry failures are
// logged and never abort the batch.
package ingest
