// Package config manages user-level settings stored at ~/.skilldocs/config.yaml.
// It registers defaults for every key, layers SKILLDOCS_* environment variables
// on top of the file, and resolves a typed Settings snapshot once per command
// invocation.
package config
