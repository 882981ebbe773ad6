package sync

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jingkaihe/skillsync/pkg/skills"
)

func commandSkill(name, description, body string) *skills.Skill {
	content := body
	if description != "" {
		content = "---\nname: " + name + "\ndescription: " + description + "\n---\n\n" + body
	}
	return &skills.Skill{
		Name:        name,
		Description: description,
		Content:     content,
	}
}

func TestRenderCommand(t *testing.T) {
	skill := commandSkill("commit", "Generate a commit message", `# Commit

This skill guides you through creating a commit.

## Steps

1. Inspect the staged diff.
`)

	rendered := RenderCommand(skill)

	assert.True(t, strings.HasPrefix(rendered, "---\ndescription: Generate a commit message\n---\n\n"))
	assert.Contains(t, rendered, "# Commit Workflow Command\n")
	assert.Contains(t, rendered, "This command guides you through creating a commit.")
	assert.NotContains(t, rendered, "This skill guides")
	assert.NotContains(t, rendered, "name: commit")
	assert.Contains(t, rendered, "## Steps")
}

func TestRenderCommandRewritesOnlyFirstTopLevelHeading(t *testing.T) {
	skill := commandSkill("deploy", "Ship it", "# Deploy\n\nBody.\n\n# Appendix\n")

	rendered := RenderCommand(skill)

	assert.Contains(t, rendered, "# Deploy Workflow Command\n")
	assert.Contains(t, rendered, "# Appendix\n")
	assert.NotContains(t, rendered, "# Appendix Workflow Command")
}

func TestRenderCommandDefaultDescription(t *testing.T) {
	skill := commandSkill("bare", "", "# Bare\n\nNo frontmatter at all.\n")

	rendered := RenderCommand(skill)

	assert.True(t, strings.HasPrefix(rendered, "---\ndescription: "+DefaultDescription+"\n---\n\n"))
	assert.Contains(t, rendered, "# Bare Workflow Command")
}

func TestRenderCommandDeterministic(t *testing.T) {
	skill := commandSkill("review", "Review a PR", "# Review\n\nthis skill guides the review.\n")

	first := RenderCommand(skill)
	second := RenderCommand(skill)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "this command guides the review.")
}
