package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillsync/pkg/skills"
)

type fixture struct {
	root    string
	catalog *skills.Catalog
	targets []Target
}

func newFixture(t *testing.T, skillNames ...string) *fixture {
	t.Helper()
	root := t.TempDir()

	canonical := filepath.Join(root, "shared", "skills")
	require.NoError(t, os.MkdirAll(canonical, 0o755))
	for _, name := range skillNames {
		dir := filepath.Join(canonical, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		content := "---\nname: " + name + "\ndescription: The " + name + " skill\n---\n\n# " +
			name + "\n\nThis skill guides you through " + name + ".\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, skills.SkillFileName), []byte(content), 0o644))
	}

	catalog, err := skills.Load(canonical)
	require.NoError(t, err)

	return &fixture{
		root:    root,
		catalog: catalog,
		targets: []Target{
			{Tool: "claude", Root: filepath.Join(root, "claude", ".claude", "skills"), Kind: TargetSymlink},
			{Tool: "codex", Root: filepath.Join(root, "codex", ".codex", "skills"), Kind: TargetSymlink},
			{Tool: "opencode", Root: filepath.Join(root, "opencode", ".opencode", "command"), Kind: TargetCommand},
		},
	}
}

func (f *fixture) run(t *testing.T, check bool) *Report {
	t.Helper()
	syncer, err := New(f.catalog, WithTargets(f.targets...), WithCheckMode(check))
	require.NoError(t, err)
	report, err := syncer.Run(context.Background())
	require.NoError(t, err)
	return report
}

func (f *fixture) reload(t *testing.T) {
	t.Helper()
	catalog, err := skills.Load(f.catalog.Root())
	require.NoError(t, err)
	f.catalog = catalog
}

func TestApplyCreatesLinksAndCommands(t *testing.T) {
	f := newFixture(t, "commit")

	report := f.run(t, false)
	// commit is materialized at all three targets
	assert.Len(t, report.Changes, 3)

	for _, target := range f.targets[:2] {
		linkPath := filepath.Join(target.Root, "commit")
		info, err := os.Lstat(linkPath)
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&os.ModeSymlink)

		resolved, err := filepath.EvalSymlinks(linkPath)
		require.NoError(t, err)
		canonical, err := filepath.EvalSymlinks(filepath.Join(f.catalog.Root(), "commit"))
		require.NoError(t, err)
		assert.Equal(t, canonical, resolved)
	}

	content, err := os.ReadFile(filepath.Join(f.targets[2].Root, "commit.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Commit Workflow Command")
	assert.Contains(t, string(content), "This command guides you through commit.")
}

func TestLinkDestinationIsRelative(t *testing.T) {
	f := newFixture(t, "commit")
	f.run(t, false)

	dest, err := os.Readlink(filepath.Join(f.targets[0].Root, "commit"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("..", "..", "..", "shared", "skills", "commit"), dest)
}

func TestApplyIsIdempotent(t *testing.T) {
	f := newFixture(t, "commit", "review")

	first := f.run(t, false)
	assert.NotEmpty(t, first.Changes)

	second := f.run(t, false)
	assert.Empty(t, second.Changes, "second apply should be a no-op")
}

func TestCheckApplyEquivalence(t *testing.T) {
	f := newFixture(t, "commit", "review")

	check := f.run(t, true)
	apply := f.run(t, false)
	assert.Equal(t, len(check.Changes), len(apply.Changes))

	recheck := f.run(t, true)
	assert.True(t, recheck.Clean())
}

func TestCheckDoesNotMutate(t *testing.T) {
	f := newFixture(t, "commit")

	report := f.run(t, true)
	assert.False(t, report.Clean())

	for _, target := range f.targets {
		_, err := os.Stat(target.Root)
		assert.True(t, os.IsNotExist(err), "check mode must not create %s", target.Root)
	}
}

func TestCheckReportsWrongLinkDestination(t *testing.T) {
	f := newFixture(t, "commit")
	f.run(t, false)

	linkPath := filepath.Join(f.targets[0].Root, "commit")
	require.NoError(t, os.Remove(linkPath))
	require.NoError(t, os.Symlink("somewhere/else", linkPath))

	report := f.run(t, true)
	require.Len(t, report.Changes, 1)
	assert.Equal(t, linkPath, report.Changes[0].Path)
	assert.Contains(t, report.Changes[0].Reason, "links to somewhere/else")
}

func TestCheckReportsNonSymlink(t *testing.T) {
	f := newFixture(t, "commit")
	f.run(t, false)

	linkPath := filepath.Join(f.targets[1].Root, "commit")
	require.NoError(t, os.Remove(linkPath))
	require.NoError(t, os.WriteFile(linkPath, nil, 0o644))

	report := f.run(t, true)
	require.Len(t, report.Changes, 1)
	assert.Equal(t, "not a symlink", report.Changes[0].Reason)

	// apply replaces the plain file with a fresh link
	f.run(t, false)
	info, err := os.Lstat(linkPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)
}

func TestApplyRewritesModifiedCommand(t *testing.T) {
	f := newFixture(t, "commit")
	f.run(t, false)

	path := filepath.Join(f.targets[2].Root, "commit.md")
	require.NoError(t, os.WriteFile(path, []byte("tampered"), 0o644))

	report := f.run(t, true)
	require.Len(t, report.Changes, 1)
	assert.Equal(t, "out of sync", report.Changes[0].Reason)

	f.run(t, false)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Commit Workflow Command")
}

func TestSweepRemovesStaleEntries(t *testing.T) {
	f := newFixture(t, "commit", "doomed")
	f.run(t, false)

	// Remove the canonical skill, leaving stale entries in every target
	require.NoError(t, os.RemoveAll(filepath.Join(f.catalog.Root(), "doomed")))
	f.reload(t)

	check := f.run(t, true)
	require.Len(t, check.Changes, 3)
	for _, change := range check.Changes {
		assert.Equal(t, "stale", change.Reason)
	}

	apply := f.run(t, false)
	assert.Len(t, apply.Changes, 3)

	for _, target := range f.targets[:2] {
		_, err := os.Lstat(filepath.Join(target.Root, "doomed"))
		assert.True(t, os.IsNotExist(err))
		// surviving skill untouched
		_, err = os.Lstat(filepath.Join(target.Root, "commit"))
		assert.NoError(t, err)
	}
	_, err := os.Stat(filepath.Join(f.targets[2].Root, "doomed.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestSweepRemovesDanglingSymlink(t *testing.T) {
	f := newFixture(t, "commit")
	f.run(t, false)

	// A stale link whose destination no longer exists
	dangling := filepath.Join(f.targets[0].Root, "gone")
	require.NoError(t, os.Symlink("../../../shared/skills/gone", dangling))

	report := f.run(t, false)
	require.Len(t, report.Changes, 1)
	assert.Equal(t, dangling, report.Changes[0].Path)
	_, err := os.Lstat(dangling)
	assert.True(t, os.IsNotExist(err))
}

func TestNewRequiresCatalog(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNewRequiresTargets(t *testing.T) {
	f := newFixture(t)
	_, err := New(f.catalog, WithTargets())
	assert.Error(t, err)
}
