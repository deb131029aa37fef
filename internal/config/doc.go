// Package config defines the tunables used by the minaret binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the fetch endpoints, the cache radii and movement
// threshold, and the alarm lead and silence durations. Environment variables
// (optionally via a .env file) override individual file values.
package config
