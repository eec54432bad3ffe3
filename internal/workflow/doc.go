// Package workflow implements the install, update, remove and detect
// operations on top of the registry, fetcher, installer and lockfile store.
//
// Entries are processed one at a time. A failure is recorded against the one
// entry it belongs to and processing continues; the returned Summary carries
// every outcome and an aggregated error when anything failed.
package workflow
