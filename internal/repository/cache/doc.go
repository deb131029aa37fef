// Package cache persists the snapshot of fetched places of worship together
// with the position and calendar day of the fetch.
//
// The snapshot is a single JSON document replaced wholesale on every save.
// A missing or unreadable file reads as "no cache": staleness handling makes
// corruption recoverable by simply refetching.
package cache
