// Package repositories implements SQLite persistence for the artwork index.
//
// Key Implementations:
//   - [ArtworkRepository] : cover images keyed by normalized artist|album, with directory lookups
//   - [ScanRunRepository] : history of library indexer runs
//
// Lookups that find nothing return [shared.ErrArtworkNotFound] or [shared.ErrNotFound]
// so callers can tell an empty result from a storage failure with errors.Is.
package repositories
