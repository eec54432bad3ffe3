// Package cli defines the Cobra command tree for the skilldocs CLI. Each file
// registers one top-level command with the root command. Commands build their
// collaborators through newApp and delegate to the workflow, registry and
// installer packages; they only parse flags, format output and prompt.
package cli
