// Package installer materializes fetched documentation as a skill.
//
// Each skill has one canonical directory under <project>/.agents/skills/<slug>
// holding SKILL.md, plus reference.md when the content is long. Every other
// agent sees the skill through a link (or copy) at its own skills directory.
// Slugs are validated and every derived path is checked to stay inside its
// root before anything touches the filesystem.
package installer
