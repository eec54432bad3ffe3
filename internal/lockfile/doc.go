// Package lockfile persists the per-project record of installed skills and
// their provenance in <project>/.skilldocs/skills-lock.json.
//
// Every operation is a full read-modify-write round trip with no in-process
// caching. Writes go through a temporary file and an atomic rename, so a
// crash never leaves a partial lockfile. Two processes mutating the same
// project concurrently are not coordinated: the last writer wins.
//
// A lockfile that fails structural validation is renamed to
// skills-lock.json.backup and replaced by an empty one.
package lockfile
