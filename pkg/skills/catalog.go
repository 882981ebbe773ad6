package skills

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Catalog is an immutable snapshot of the canonical root, taken once per
// run. Reconciliation and the stale sweep both consult the same snapshot so
// a skill added or removed mid-run cannot be seen by one phase and not the
// other.
type Catalog struct {
	root   string
	skills map[string]*Skill
}

// Load reads the canonical root and returns a snapshot of every skill in
// it. Directory entries without a SKILL.md are skipped; an unreadable or
// malformed SKILL.md fails the load since the canonical set would be
// ambiguous.
func Load(root string) (*Catalog, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read canonical root %s", root)
	}

	catalog := &Catalog{
		root:   root,
		skills: make(map[string]*Skill),
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		path := filepath.Join(dir, SkillFileName)

		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}

		fields, _, err := ParseFrontmatter(string(content))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid frontmatter in %s", path)
		}

		catalog.skills[entry.Name()] = &Skill{
			Name:        entry.Name(),
			Description: fields["description"],
			Directory:   dir,
			Content:     string(content),
		}
	}

	return catalog, nil
}

// Root returns the canonical root directory the catalog was loaded from.
func (c *Catalog) Root() string {
	return c.root
}

// Has reports whether a skill with the given name exists in the snapshot.
func (c *Catalog) Has(name string) bool {
	_, ok := c.skills[name]
	return ok
}

// Get returns the skill with the given name, if present.
func (c *Catalog) Get(name string) (*Skill, bool) {
	skill, ok := c.skills[name]
	return skill, ok
}

// Names returns all skill names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.skills))
	for name := range c.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Skills returns all skills sorted by name.
func (c *Catalog) Skills() []*Skill {
	skills := make([]*Skill, 0, len(c.skills))
	for _, name := range c.Names() {
		skills = append(skills, c.skills[name])
	}
	return skills
}

// Len returns the number of skills in the snapshot.
func (c *Catalog) Len() int {
	return len(c.skills)
}
