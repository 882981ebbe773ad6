package confluence

import (
	"bytes"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
)

// StorageToMarkdown converts Confluence storage format (an HTML dialect)
// into markdown for terminal display and local editing.
func StorageToMarkdown(storage string) (string, error) {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(storage)
	if err != nil {
		return "", errors.Wrap(err, "failed to convert storage format to markdown")
	}
	return markdown, nil
}

// MarkdownToStorage renders markdown into HTML, which Confluence accepts
// as storage-format input.
func MarkdownToStorage(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", errors.Wrap(err, "failed to render markdown")
	}
	return buf.String(), nil
}
