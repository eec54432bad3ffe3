// Package platform provides the filesystem primitives used to fan installed
// skills out to agent directories: a LinkStrategy abstraction with symlink,
// copy, and symlink-then-copy implementations, plus permission handling that
// is a no-op where Unix permission bits do not exist.
package platform
