// Package models defines the persistent entities behind artwork lookup.
//
//   - [Artwork] : a cover image indexed by normalized artist and album
//   - [ScanRun] : one run of the library indexer over a music root
//
// Persistent entities implement [Model], providing IDs, timestamps and validation.
// Storage lives in the repositories package.
package models
