// Package catalog turns raw ERP export records into the product schema sent
// to the e-shop API.
//
// The pipeline has three steps:
//
//   - LoadRecords parses the export and drops duplicate ids, first occurrence wins.
//   - Transformer.Normalize validates one record and derives the tax-inclusive
//     price, the aggregate stock and the color.
//   - Fingerprint hashes a normalized product so that unchanged products can be
//     skipped on the next run.
//
// Nothing in this package fails on a bad record. Problems are reported as
// Diagnostic values and the record is either dropped or defaulted.
package catalog
