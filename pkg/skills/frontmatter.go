package skills

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// SplitFrontmatter separates the "---" delimited YAML header from the body.
// It is a two-state line scanner: outside the block until the opening
// delimiter on the first line, inside until the closing delimiter. Content
// without a frontmatter block yields an empty header and the content
// unchanged, so callers can treat the block as optional.
func SplitFrontmatter(content string) (header, body string) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatterDelimiter {
		return "", content
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatterDelimiter {
			header = strings.Join(lines[1:i], "\n")
			body = strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n")
			return header, body
		}
	}

	// Unterminated block: treat the whole content as body
	return "", content
}

// ParseFrontmatter decodes the frontmatter header into a flat key/value map.
// Non-scalar values are ignored; quoting is handled by the YAML decoder.
func ParseFrontmatter(content string) (map[string]string, string, error) {
	header, body := SplitFrontmatter(content)
	fields := make(map[string]string)

	if header == "" {
		return fields, body, nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(header), &raw); err != nil {
		return nil, "", errors.Wrap(err, "failed to parse frontmatter")
	}

	for key, value := range raw {
		if s, ok := value.(string); ok {
			fields[key] = strings.TrimSpace(s)
		}
	}

	return fields, body, nil
}
