// Package harness reproduces the classic shared-state demos on top of
// package locks: an unguarded counter, a ticket office with several sale
// windows and a two-field record shared by producers and a reader.
//
// Each demo can run with the wrong guard to show the hazard and with the
// right one to show it gone. State that is deliberately unguarded is kept
// in per-field atomics so lost updates and torn reads appear without
// tripping the race detector.
package harness
