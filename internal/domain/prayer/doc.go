// Package prayer contains the daily observance schedule model and the pure
// derivations on it: reminder alarms with a fixed lead, silence windows, and
// next-event selection.
package prayer
