// Package sync keeps tool-specific configuration trees consistent with the
// canonical skill catalog. For every skill it maintains either a relative
// symlink back to the canonical directory or a rendered single-file command,
// and it removes entries in the target trees that no longer correspond to a
// canonical skill. The whole mechanism is idempotent and can run in a
// check-only mode that reports drift without mutating anything.
package sync

import "path/filepath"

// TargetKind selects how a tool consumes skills from its target root.
type TargetKind int

const (
	// TargetSymlink mirrors each skill as a relative symlink to the
	// canonical skill directory.
	TargetSymlink TargetKind = iota
	// TargetCommand renders each skill into a flat <name>.md command file
	// for tools that do not support directory-shaped skills.
	TargetCommand
)

// Target is one (tool, root) pair that must hold exactly one entry per
// canonical skill.
type Target struct {
	Tool string
	Root string
	Kind TargetKind
}

// EntryName returns the directory entry a skill occupies under the target
// root. Symlink targets use the skill name itself, command targets a
// rendered markdown file.
func (t Target) EntryName(skillName string) string {
	if t.Kind == TargetCommand {
		return skillName + ".md"
	}
	return skillName
}

// EntryPath returns the full path of a skill's entry under the target root.
func (t Target) EntryPath(skillName string) string {
	return filepath.Join(t.Root, t.EntryName(skillName))
}

// DefaultCanonicalRoot is where the shared skill definitions live relative
// to the repository root.
const DefaultCanonicalRoot = "shared/skills"

// DefaultTargets returns the fixed tool mapping the dotfiles tree uses.
// Claude and Codex consume directory-shaped skills via symlinks; OpenCode
// expects flat command files.
func DefaultTargets() []Target {
	return []Target{
		{Tool: "claude", Root: "claude/.claude/skills", Kind: TargetSymlink},
		{Tool: "codex", Root: "codex/.codex/skills", Kind: TargetSymlink},
		{Tool: "opencode", Root: "opencode/.opencode/command", Kind: TargetCommand},
	}
}
