// Package sources fetches the raw ERP catalog export that feeds a sync run.
//
// A SourceHandler returns the exported bytes together with a SHA-256 hash of
// them, which the sync manager compares against the hash of the last
// completed run to decide whether a scheduled run has anything to do.
//
// Current implementations:
//   - file: reads the export from the local filesystem
//   - s3: downloads the export from an S3 (or S3 compatible) bucket
//
// FileWatcher observes a file source and triggers a run as soon as the export
// is replaced.
package sources
