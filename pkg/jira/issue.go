package jira

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// User is an account reference on an issue
type User struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Status is an issue workflow status
type Status struct {
	Name string `json:"name"`
}

// IssueType names the kind of issue (Bug, Task, Story, ...)
type IssueType struct {
	Name string `json:"name"`
}

// Priority is an issue priority by name
type Priority struct {
	Name string `json:"name"`
}

// Comment is a single issue comment
type Comment struct {
	Author  User   `json:"author"`
	Created string `json:"created"`
	Body    string `json:"body"`
}

// CommentList wraps the comments expansion on an issue
type CommentList struct {
	Comments []Comment `json:"comments"`
}

// Fields holds the issue fields this tool displays and edits
type Fields struct {
	Summary     string       `json:"summary,omitempty"`
	Description string       `json:"description,omitempty"`
	Status      *Status      `json:"status,omitempty"`
	IssueType   *IssueType   `json:"issuetype,omitempty"`
	Priority    *Priority    `json:"priority,omitempty"`
	Assignee    *User        `json:"assignee,omitempty"`
	Labels      []string     `json:"labels,omitempty"`
	Comment     *CommentList `json:"comment,omitempty"`
}

// Issue is a Jira issue with its key and requested fields
type Issue struct {
	Key    string `json:"key"`
	Fields Fields `json:"fields"`
}

// SearchResult is the response of a JQL search
type SearchResult struct {
	Total  int     `json:"total"`
	Issues []Issue `json:"issues"`
}

// Transition is one available workflow transition for an issue
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   Status `json:"to"`
}

// Project is a Jira project reference
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// GetIssue fetches an issue by key, optionally restricting fields and
// adding expansions.
func (c *Client) GetIssue(ctx context.Context, key string, fields, expand []string) (*Issue, error) {
	params := url.Values{}
	if len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}
	if len(expand) > 0 {
		params.Set("expand", strings.Join(expand, ","))
	}

	var issue Issue
	if err := c.do(ctx, "GET", "issue/"+key, params, nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// SearchIssues runs a JQL query.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int, fields []string) (*SearchResult, error) {
	payload := map[string]any{
		"jql":        jql,
		"maxResults": maxResults,
	}
	if len(fields) > 0 {
		payload["fields"] = fields
	}

	var result SearchResult
	if err := c.do(ctx, "POST", "search", nil, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateIssueInput describes the issue to create. Project, Type and
// Summary are required; the rest are optional.
type CreateIssueInput struct {
	Project     string
	Type        string
	Summary     string
	Description string
	Priority    string
	Assignee    string
	Labels      []string
	Components  []string
}

// CreateIssue creates an issue and returns its reference (key).
func (c *Client) CreateIssue(ctx context.Context, input CreateIssueInput) (*Issue, error) {
	fields := map[string]any{
		"project":   map[string]string{"key": input.Project},
		"issuetype": map[string]string{"name": input.Type},
		"summary":   input.Summary,
	}
	if input.Description != "" {
		fields["description"] = input.Description
	}
	if input.Priority != "" {
		fields["priority"] = map[string]string{"name": input.Priority}
	}
	if input.Assignee != "" {
		fields["assignee"] = map[string]string{"name": input.Assignee}
	}
	if len(input.Labels) > 0 {
		fields["labels"] = input.Labels
	}
	if len(input.Components) > 0 {
		components := make([]map[string]string, 0, len(input.Components))
		for _, name := range input.Components {
			components = append(components, map[string]string{"name": name})
		}
		fields["components"] = components
	}

	var issue Issue
	if err := c.do(ctx, "POST", "issue", nil, map[string]any{"fields": fields}, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// UpdateIssue applies field replacements and/or update operations (such as
// label add/remove) to an issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields, update map[string]any) error {
	payload := map[string]any{}
	if len(fields) > 0 {
		payload["fields"] = fields
	}
	if len(update) > 0 {
		payload["update"] = update
	}
	return c.do(ctx, "PUT", "issue/"+key, nil, payload, nil)
}

// GetTransitions lists the workflow transitions currently available.
func (c *Client) GetTransitions(ctx context.Context, key string) ([]Transition, error) {
	var result struct {
		Transitions []Transition `json:"transitions"`
	}
	if err := c.do(ctx, "GET", "issue/"+key+"/transitions", nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Transitions, nil
}

// ResolveTransition matches a transition by ID or case-insensitive name.
func ResolveTransition(transitions []Transition, nameOrID string) (Transition, bool) {
	for _, t := range transitions {
		if t.ID == nameOrID || strings.EqualFold(t.Name, nameOrID) {
			return t, true
		}
	}
	return Transition{}, false
}

// TransitionIssue moves an issue through a transition, optionally adding a
// comment as part of the same operation.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID, comment string) error {
	payload := map[string]any{
		"transition": map[string]string{"id": transitionID},
	}
	if comment != "" {
		payload["update"] = map[string]any{
			"comment": []map[string]any{
				{"add": map[string]string{"body": comment}},
			},
		}
	}
	return c.do(ctx, "POST", fmt.Sprintf("issue/%s/transitions", key), nil, payload, nil)
}

// AddComment adds a comment to an issue.
func (c *Client) AddComment(ctx context.Context, key, body string) error {
	return c.do(ctx, "POST", fmt.Sprintf("issue/%s/comment", key), nil, map[string]string{"body": body}, nil)
}

// AssignIssue assigns an issue to a user; an empty username unassigns it.
func (c *Client) AssignIssue(ctx context.Context, key, username string) error {
	payload := map[string]any{"name": nil}
	if username != "" {
		payload["name"] = username
	}
	return c.do(ctx, "PUT", fmt.Sprintf("issue/%s/assignee", key), nil, payload, nil)
}

// GetProjects lists the projects visible to the authenticated user.
func (c *Client) GetProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, "GET", "project", nil, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}
