package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillsync/pkg/logger"
	"github.com/jingkaihe/skillsync/pkg/skills"
)

// Change records a single mutation performed (apply mode) or discrepancy
// found (check mode).
type Change struct {
	Tool   string
	Path   string
	Reason string
}

func (c Change) String() string {
	return fmt.Sprintf("%s (%s)", c.Path, c.Reason)
}

// Report aggregates the outcome of one run. Drift is data, not an error:
// the run keeps going after finding discrepancies so a single check-mode
// invocation reports all of them.
type Report struct {
	Changes []Change
}

// Clean reports whether the run found nothing to change.
func (r *Report) Clean() bool {
	return len(r.Changes) == 0
}

func (r *Report) record(target Target, path, reason string) {
	r.Changes = append(r.Changes, Change{Tool: target.Tool, Path: path, Reason: reason})
}

// Syncer reconciles a set of targets against a catalog snapshot.
type Syncer struct {
	catalog *skills.Catalog
	targets []Target
	check   bool
}

// Option is a function that configures a Syncer
type Option func(*Syncer) error

// WithTargets sets the target mapping, replacing the defaults.
func WithTargets(targets ...Target) Option {
	return func(s *Syncer) error {
		if len(targets) == 0 {
			return errors.New("at least one target must be specified")
		}
		s.targets = targets
		return nil
	}
}

// WithCheckMode makes the run read-only: discrepancies are reported in the
// returned Report and nothing on disk is touched.
func WithCheckMode(check bool) Option {
	return func(s *Syncer) error {
		s.check = check
		return nil
	}
}

// New creates a Syncer over the given catalog snapshot.
func New(catalog *skills.Catalog, opts ...Option) (*Syncer, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}

	s := &Syncer{
		catalog: catalog,
		targets: DefaultTargets(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Run reconciles every skill against every target, then sweeps each target
// root for stale entries. All skills are fully reconciled before any sweep
// begins so a freshly written entry is never flagged as stale. Filesystem
// failures abort the run immediately; drift never does.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	log := logger.G(ctx)
	report := &Report{}

	for _, skill := range s.catalog.Skills() {
		for _, target := range s.targets {
			log.WithField("skill", skill.Name).WithField("tool", target.Tool).Debug("reconciling")

			var err error
			switch target.Kind {
			case TargetCommand:
				err = s.reconcileCommand(skill, target, report)
			default:
				err = s.reconcileLink(skill, target, report)
			}
			if err != nil {
				return nil, err
			}
		}
	}

	for _, target := range s.targets {
		if err := s.sweep(target, report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// reconcileLink ensures the target entry is a symlink whose destination
// string equals the canonical skill directory's path relative to the
// target root. Anything else at that path is drift.
func (s *Syncer) reconcileLink(skill *skills.Skill, target Target, report *Report) error {
	linkPath := target.EntryPath(skill.Name)

	expected, err := filepath.Rel(target.Root, skill.Directory)
	if err != nil {
		return errors.Wrapf(err, "failed to compute relative path for %s", linkPath)
	}

	info, err := os.Lstat(linkPath)
	switch {
	case os.IsNotExist(err):
		report.record(target, linkPath, "missing")
	case err != nil:
		return errors.Wrapf(err, "failed to stat %s", linkPath)
	case info.Mode()&os.ModeSymlink == 0:
		report.record(target, linkPath, "not a symlink")
	default:
		actual, err := os.Readlink(linkPath)
		if err != nil {
			return errors.Wrapf(err, "failed to read link %s", linkPath)
		}
		if actual == expected {
			return nil
		}
		report.record(target, linkPath, fmt.Sprintf("links to %s, want %s", actual, expected))
	}

	if s.check {
		return nil
	}

	if err := os.RemoveAll(linkPath); err != nil {
		return errors.Wrapf(err, "failed to remove %s", linkPath)
	}
	if err := os.MkdirAll(filepath.Dir(linkPath), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(linkPath))
	}
	if err := os.Symlink(expected, linkPath); err != nil {
		return errors.Wrapf(err, "failed to link %s", linkPath)
	}

	return nil
}

// reconcileCommand renders the skill's command file and compares it byte
// for byte with what is on disk, rewriting only on difference or absence.
func (s *Syncer) reconcileCommand(skill *skills.Skill, target Target, report *Report) error {
	path := target.EntryPath(skill.Name)
	rendered := RenderCommand(skill)

	current, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		report.record(target, path, "missing")
	case err != nil:
		return errors.Wrapf(err, "failed to read %s", path)
	case string(current) == rendered:
		return nil
	default:
		report.record(target, path, "out of sync")
	}

	if s.check {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}

	return nil
}

// sweep removes (or, in check mode, reports) entries under the target root
// with no matching skill in the catalog snapshot.
func (s *Syncer) sweep(target Target, report *Report) error {
	if !s.check {
		if err := os.MkdirAll(target.Root, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", target.Root)
		}
	}

	expected := make(map[string]bool, s.catalog.Len())
	for _, name := range s.catalog.Names() {
		expected[target.EntryName(name)] = true
	}

	entries, err := os.ReadDir(target.Root)
	if err != nil {
		// A missing root in check mode is simply empty, not an error
		if s.check && os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to read %s", target.Root)
	}

	for _, entry := range entries {
		if expected[entry.Name()] {
			continue
		}

		stalePath := filepath.Join(target.Root, entry.Name())
		report.record(target, stalePath, "stale")

		if s.check {
			continue
		}
		if err := os.RemoveAll(stalePath); err != nil {
			return errors.Wrapf(err, "failed to remove %s", stalePath)
		}
	}

	return nil
}
