// Package watcher orchestrates one location sample end to end: it consults
// the cache freshness policy, refetches and persists the places snapshot
// when required, derives the reminder alarms from the day's schedule and
// hands them to the alarm sink.
//
// Samples are processed one at a time; a sample arriving while another is in
// flight waits its turn, so nothing ever races the cache file.
package watcher
