package confluence

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Space is a Confluence space reference
type Space struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Version tracks a page's edit history position
type Version struct {
	Number    int  `json:"number"`
	MinorEdit bool `json:"minorEdit,omitempty"`
}

// BodyContent is one representation of a page body
type BodyContent struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// Body wraps the storage representation of a page
type Body struct {
	Storage *BodyContent `json:"storage,omitempty"`
}

// Page is a Confluence content item (page or attachment metadata)
type Page struct {
	ID      string   `json:"id"`
	Type    string   `json:"type,omitempty"`
	Title   string   `json:"title"`
	Space   *Space   `json:"space,omitempty"`
	Version *Version `json:"version,omitempty"`
	Body    *Body    `json:"body,omitempty"`
}

// StorageBody returns the page's storage-format body, if expanded.
func (p *Page) StorageBody() string {
	if p.Body == nil || p.Body.Storage == nil {
		return ""
	}
	return p.Body.Storage.Value
}

// ContentList is the paged list shape the content endpoints return
type ContentList struct {
	Results []Page `json:"results"`
	Size    int    `json:"size"`
}

const pageExpand = "body.storage,version,space,ancestors"

// GetPage fetches a page by ID with its storage body and version expanded.
func (c *Client) GetPage(ctx context.Context, pageID string) (*Page, error) {
	params := url.Values{}
	params.Set("expand", pageExpand)

	var page Page
	if err := c.do(ctx, "GET", "content/"+pageID, params, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPageByTitle looks a page up by space key and exact title.
func (c *Client) GetPageByTitle(ctx context.Context, spaceKey, title string) (*Page, error) {
	params := url.Values{}
	params.Set("spaceKey", spaceKey)
	params.Set("title", title)
	params.Set("expand", "body.storage,version,space")

	var list ContentList
	if err := c.do(ctx, "GET", "content", params, nil, &list); err != nil {
		return nil, err
	}
	if len(list.Results) == 0 {
		return nil, fmt.Errorf("page '%s' not found in space '%s'", title, spaceKey)
	}
	return &list.Results[0], nil
}

// Search runs a CQL query; contentType, when set, restricts the result
// type by wrapping the query.
func (c *Client) Search(ctx context.Context, cql string, maxResults int, contentType string) (*ContentList, error) {
	if contentType != "" {
		cql = fmt.Sprintf("type = %s AND (%s)", contentType, cql)
	}

	params := url.Values{}
	params.Set("cql", cql)
	params.Set("limit", strconv.Itoa(maxResults))
	params.Set("expand", "space,version")

	var list ContentList
	if err := c.do(ctx, "GET", "content/search", params, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreatePageInput describes a new page. Body must already be in storage
// format; use MarkdownToStorage to author in markdown.
type CreatePageInput struct {
	SpaceKey string
	Title    string
	Body     string
	ParentID string
}

// CreatePage creates a page, optionally under a parent.
func (c *Client) CreatePage(ctx context.Context, input CreatePageInput) (*Page, error) {
	payload := map[string]any{
		"type":  "page",
		"title": input.Title,
		"space": map[string]string{"key": input.SpaceKey},
		"body": map[string]any{
			"storage": map[string]string{
				"value":          input.Body,
				"representation": "storage",
			},
		},
	}
	if input.ParentID != "" {
		payload["ancestors"] = []map[string]string{{"id": input.ParentID}}
	}

	var page Page
	if err := c.do(ctx, "POST", "content", nil, payload, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePageInput describes an edit. Empty Title and Body leave the
// current values in place.
type UpdatePageInput struct {
	Title     string
	Body      string
	MinorEdit bool
}

// UpdatePage performs the read-modify-write version dance Confluence
// requires: the current version is fetched and incremented by one.
func (c *Client) UpdatePage(ctx context.Context, pageID string, input UpdatePageInput) (*Page, error) {
	current, err := c.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}

	title := input.Title
	if title == "" {
		title = current.Title
	}
	currentVersion := 0
	if current.Version != nil {
		currentVersion = current.Version.Number
	}

	payload := map[string]any{
		"type":  "page",
		"title": title,
		"version": map[string]any{
			"number":    currentVersion + 1,
			"minorEdit": input.MinorEdit,
		},
	}
	if input.Body != "" {
		payload["body"] = map[string]any{
			"storage": map[string]string{
				"value":          input.Body,
				"representation": "storage",
			},
		}
	}

	var page Page
	if err := c.do(ctx, "PUT", "content/"+pageID, nil, payload, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// DeletePage removes a page.
func (c *Client) DeletePage(ctx context.Context, pageID string) error {
	return c.do(ctx, "DELETE", "content/"+pageID, nil, nil, nil)
}

// GetChildren lists a page's direct child pages.
func (c *Client) GetChildren(ctx context.Context, pageID string, maxResults int) (*ContentList, error) {
	params := url.Values{}
	params.Set("expand", "version")
	params.Set("limit", strconv.Itoa(maxResults))

	var list ContentList
	if err := c.do(ctx, "GET", fmt.Sprintf("content/%s/child/page", pageID), params, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// SpaceList is the paged list shape the space endpoint returns
type SpaceList struct {
	Results []Space `json:"results"`
}

// GetSpaces lists spaces, optionally filtered by type (global, personal).
func (c *Client) GetSpaces(ctx context.Context, spaceType string) (*SpaceList, error) {
	params := url.Values{}
	params.Set("limit", "100")
	params.Set("expand", "description.plain")
	if spaceType != "" {
		params.Set("type", spaceType)
	}

	var list SpaceList
	if err := c.do(ctx, "GET", "space", params, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetAttachments lists a page's attachments.
func (c *Client) GetAttachments(ctx context.Context, pageID string) (*ContentList, error) {
	params := url.Values{}
	params.Set("expand", "version")

	var list ContentList
	if err := c.do(ctx, "GET", fmt.Sprintf("content/%s/child/attachment", pageID), params, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UploadAttachment attaches a local file to a page.
func (c *Client) UploadAttachment(ctx context.Context, pageID, filePath string) (*ContentList, error) {
	var list ContentList
	if err := c.upload(ctx, fmt.Sprintf("content/%s/child/attachment", pageID), filePath, &list); err != nil {
		return nil, err
	}
	return &list, nil
}
