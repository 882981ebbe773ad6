package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, root, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SkillFileName), []byte(content), 0o644))
	return dir
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	commitDir := writeSkill(t, tmpDir, "commit", `---
name: commit
description: Generate a commit message from staged changes
---

# Commit

This skill guides you through creating a commit.
`)

	writeSkill(t, tmpDir, "review", `---
name: review
description: "Review a pull request"
---

# Review

Some content here.
`)

	catalog, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())
	assert.Equal(t, tmpDir, catalog.Root())

	commit, ok := catalog.Get("commit")
	require.True(t, ok)
	assert.Equal(t, "commit", commit.Name)
	assert.Equal(t, "Generate a commit message from staged changes", commit.Description)
	assert.Equal(t, commitDir, commit.Directory)
	assert.Contains(t, commit.Content, "# Commit")

	review, ok := catalog.Get("review")
	require.True(t, ok)
	assert.Equal(t, "Review a pull request", review.Description)

	assert.Equal(t, []string{"commit", "review"}, catalog.Names())
	assert.True(t, catalog.Has("commit"))
	assert.False(t, catalog.Has("missing"))
}

func TestLoadSkipsEntriesWithoutSkillFile(t *testing.T) {
	tmpDir := t.TempDir()

	writeSkill(t, tmpDir, "real", "---\ndescription: A real skill\n---\n\n# Real\n")
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "empty-dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "README.md"), []byte("not a skill"), 0o644))

	catalog, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"real"}, catalog.Names())
}

func TestLoadNameIsDirectoryName(t *testing.T) {
	tmpDir := t.TempDir()

	// The frontmatter name field does not override the directory name
	writeSkill(t, tmpDir, "actual-name", `---
name: frontmatter-name
description: Name comes from the directory
---

# Skill
`)

	catalog, err := Load(tmpDir)
	require.NoError(t, err)
	_, ok := catalog.Get("frontmatter-name")
	assert.False(t, ok)
	skill, ok := catalog.Get("actual-name")
	require.True(t, ok)
	assert.Equal(t, "actual-name", skill.Name)
}

func TestLoadMissingRoot(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestLoadInvalidFrontmatter(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "broken", "---\ndescription: [unclosed\n---\n\n# Broken\n")

	_, err := Load(tmpDir)
	assert.Error(t, err)
}
