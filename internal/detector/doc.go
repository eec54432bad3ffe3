// Package detector suggests registry entries for a project by matching the
// dependencies declared in its manifests (package.json, go.mod,
// requirements.txt) against entry slugs and names. It never installs
// anything and never fails: unreadable manifests contribute no dependencies.
package detector
