// Package agents describes the AI coding agents skills are distributed to.
// Each agent has a project-relative skills directory convention. Exactly one
// agent is universal: its directory is the canonical store, and every other
// agent receives a link to the canonical copy.
package agents
