package sync

import (
	"strings"
	"unicode"

	"github.com/jingkaihe/skillsync/pkg/skills"
)

// DefaultDescription is used when a skill's frontmatter has no description.
const DefaultDescription = "No description provided"

// RenderCommand derives the flat command-file representation of a skill for
// tools that cannot consume directory-shaped skills. The command format
// recognizes only the description field, so the frontmatter is re-emitted
// with just that; the first top-level heading becomes a command title and
// skill vocabulary is swapped for command vocabulary. The output is a pure
// function of the skill content: identical input yields identical bytes.
func RenderCommand(skill *skills.Skill) string {
	description := skill.Description
	if description == "" {
		description = DefaultDescription
	}

	_, body := skills.SplitFrontmatter(skill.Content)

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "# ") {
			lines[i] = "# " + capitalize(skill.Name) + " Workflow Command"
			break
		}
	}
	body = strings.Join(lines, "\n")

	body = strings.ReplaceAll(body, "This skill guides", "This command guides")
	body = strings.ReplaceAll(body, "this skill guides", "this command guides")

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("description: " + description + "\n")
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String()
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
