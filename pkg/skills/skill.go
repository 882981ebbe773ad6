// Package skills models the canonical skill catalog. Each skill is a
// directory under a single canonical root holding a SKILL.md file with
// YAML frontmatter describing the skill's purpose; the directory name is
// the skill's identity. The catalog is loaded once per run as a snapshot so
// every consumer sees the same view of the canonical set.
package skills

// SkillFileName is the canonical definition file inside each skill directory.
const SkillFileName = "SKILL.md"

// Skill represents a canonical skill loaded from the catalog root
type Skill struct {
	Name        string // Directory name under the canonical root
	Description string // Brief description from frontmatter (may be empty)
	Directory   string // Full path to the skill directory
	Content     string // Full content of SKILL.md, frontmatter included
}
