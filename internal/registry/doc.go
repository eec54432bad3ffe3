// Package registry loads, caches, and searches the catalog of installable
// documentation entries. A Registry is owned by one command invocation: it
// prefers a fresh on-disk snapshot, then a live remote fetch, and finally the
// snapshot bundled into the binary, so catalog unavailability is never fatal.
package registry
