package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillsync/pkg/jira"
	"github.com/jingkaihe/skillsync/pkg/presenter"
)

var jiraCmd = &cobra.Command{
	Use:   "jira",
	Short: "Jira Data Center helper commands",
	Long: `Thin wrappers over the Jira Data Center REST API (v2) used by the
jira-datacenter skill. Configure via JIRA_BASE_URL plus JIRA_PAT, or
JIRA_USERNAME and JIRA_PASSWORD.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var jiraGetCmd = &cobra.Command{
	Use:   "get <issue-key>",
	Short: "Get issue details by key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := jiraClient()
		key := args[0]

		fields, _ := cmd.Flags().GetString("fields")
		withComments, _ := cmd.Flags().GetBool("comments")

		expand := []string{"renderedFields"}
		if withComments {
			expand = append(expand, "comments")
		}

		issue, err := client.GetIssue(cmd.Context(), key, splitCSV(fields), expand)
		if err != nil {
			presenter.Error(err, "Failed to get issue")
			os.Exit(1)
		}

		if jsonOutput(cmd) {
			printJSON(issue)
			return
		}

		f := issue.Fields
		presenter.Section(fmt.Sprintf("%s: %s", issue.Key, f.Summary))
		presenter.Info(fmt.Sprintf("URL: %s/browse/%s", client.BaseURL(), issue.Key))
		presenter.Info(fmt.Sprintf("Type: %s  Status: %s  Priority: %s",
			typeName(f.IssueType), statusName(f.Status), priorityName(f.Priority)))
		presenter.Info("Assignee: " + displayNameOf(f.Assignee))

		if len(f.Labels) > 0 {
			presenter.Info("Labels: " + strings.Join(f.Labels, ", "))
		}
		if f.Description != "" {
			presenter.Info("\nDescription:\n" + f.Description)
		}
		if withComments && f.Comment != nil && len(f.Comment.Comments) > 0 {
			presenter.Info(fmt.Sprintf("\nComments (%d):", len(f.Comment.Comments)))
			for _, c := range f.Comment.Comments {
				created := c.Created
				if len(created) > 10 {
					created = created[:10]
				}
				presenter.Info(fmt.Sprintf("\n%s %s:\n%s", created, c.Author.DisplayName, c.Body))
			}
		}
	},
}

var jiraSearchCmd = &cobra.Command{
	Use:   "search <jql>",
	Short: "Search issues using JQL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := jiraClient()

		maxResults, _ := cmd.Flags().GetInt("max")
		fields, _ := cmd.Flags().GetString("fields")

		result, err := client.SearchIssues(cmd.Context(), args[0], maxResults, splitCSV(fields))
		if err != nil {
			presenter.Error(err, "Search failed")
			os.Exit(1)
		}

		if jsonOutput(cmd) {
			printJSON(result)
			return
		}

		presenter.Info(fmt.Sprintf("Found %d issues (showing %d)\n", result.Total, len(result.Issues)))

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tTYPE\tSTATUS\tASSIGNEE\tSUMMARY")
		for _, issue := range result.Issues {
			summary := issue.Fields.Summary
			if len(summary) > 50 {
				summary = summary[:50]
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				issue.Key, typeName(issue.Fields.IssueType), statusName(issue.Fields.Status),
				displayNameOf(issue.Fields.Assignee), summary)
		}
		tw.Flush()
	},
}

var jiraCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new issue",
	Run: func(cmd *cobra.Command, _ []string) {
		client := jiraClient()

		project, _ := cmd.Flags().GetString("project")
		issueType, _ := cmd.Flags().GetString("type")
		summary, _ := cmd.Flags().GetString("summary")
		description, _ := cmd.Flags().GetString("description")
		priority, _ := cmd.Flags().GetString("priority")
		assignee, _ := cmd.Flags().GetString("assignee")
		labels, _ := cmd.Flags().GetString("labels")
		components, _ := cmd.Flags().GetString("components")

		issue, err := client.CreateIssue(cmd.Context(), jira.CreateIssueInput{
			Project:     project,
			Type:        issueType,
			Summary:     summary,
			Description: description,
			Priority:    priority,
			Assignee:    assignee,
			Labels:      splitCSV(labels),
			Components:  splitCSV(components),
		})
		if err != nil {
			presenter.Error(err, "Failed to create issue")
			os.Exit(1)
		}

		if jsonOutput(cmd) {
			printJSON(issue)
			return
		}

		presenter.Success("Created: " + issue.Key)
		presenter.Info(fmt.Sprintf("URL: %s/browse/%s", client.BaseURL(), issue.Key))
	},
}

var jiraUpdateCmd = &cobra.Command{
	Use:   "update <issue-key>",
	Short: "Update issue fields",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := jiraClient()

		fields := map[string]any{}
		update := map[string]any{}

		if summary, _ := cmd.Flags().GetString("summary"); summary != "" {
			fields["summary"] = summary
		}
		if description, _ := cmd.Flags().GetString("description"); description != "" {
			fields["description"] = description
		}
		if priority, _ := cmd.Flags().GetString("priority"); priority != "" {
			fields["priority"] = map[string]string{"name": priority}
		}
		if labels, _ := cmd.Flags().GetString("labels"); labels != "" {
			fields["labels"] = splitCSV(labels)
		}

		var labelOps []map[string]string
		if addLabels, _ := cmd.Flags().GetString("add-labels"); addLabels != "" {
			for _, label := range splitCSV(addLabels) {
				labelOps = append(labelOps, map[string]string{"add": label})
			}
		}
		if removeLabels, _ := cmd.Flags().GetString("remove-labels"); removeLabels != "" {
			for _, label := range splitCSV(removeLabels) {
				labelOps = append(labelOps, map[string]string{"remove": label})
			}
		}
		if len(labelOps) > 0 {
			update["labels"] = labelOps
		}

		if len(fields) == 0 && len(update) == 0 {
			presenter.Error(errors.New("nothing to update"), "Provide at least one field flag")
			os.Exit(1)
		}

		if err := client.UpdateIssue(cmd.Context(), args[0], fields, update); err != nil {
			presenter.Error(err, "Failed to update issue")
			os.Exit(1)
		}
		presenter.Success("Updated: " + args[0])
	},
}

var jiraTransitionsCmd = &cobra.Command{
	Use:   "transitions <issue-key>",
	Short: "List available transitions for an issue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := jiraClient()

		transitions, err := client.GetTransitions(cmd.Context(), args[0])
		if err != nil {
			presenter.Error(err, "Failed to list transitions")
			os.Exit(1)
		}

		if jsonOutput(cmd) {
			printJSON(transitions)
			return
		}

		presenter.Info(fmt.Sprintf("Available transitions for %s:\n", args[0]))
		for _, t := range transitions {
			presenter.Info(fmt.Sprintf("  [%s] %s -> %s", t.ID, t.Name, t.To.Name))
		}
	},
}

var jiraTransitionCmd = &cobra.Command{
	Use:   "transition <issue-key> <status>",
	Short: "Transition issue to a new status",
	Long:  `Transition an issue by target status name (case-insensitive) or transition ID.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := jiraClient()
		key, status := args[0], args[1]

		transitions, err := client.GetTransitions(cmd.Context(), key)
		if err != nil {
			presenter.Error(err, "Failed to list transitions")
			os.Exit(1)
		}

		transition, ok := jira.ResolveTransition(transitions, status)
		if !ok {
			available := make([]string, 0, len(transitions))
			for _, t := range transitions {
				available = append(available, t.Name)
			}
			presenter.Error(errors.Errorf("transition '%s' not found, available: %s",
				status, strings.Join(available, ", ")), "Invalid transition")
			os.Exit(1)
		}

		comment, _ := cmd.Flags().GetString("comment")
		if err := client.TransitionIssue(cmd.Context(), key, transition.ID, comment); err != nil {
			presenter.Error(err, "Failed to transition issue")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Transitioned: %s -> %s", key, status))
	},
}

var jiraCommentCmd = &cobra.Command{
	Use:   "comment <issue-key> <body>",
	Short: "Add a comment to an issue",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := jiraClient()

		if err := client.AddComment(cmd.Context(), args[0], args[1]); err != nil {
			presenter.Error(err, "Failed to add comment")
			os.Exit(1)
		}
		presenter.Success("Added comment to: " + args[0])
	},
}

var jiraAssignCmd = &cobra.Command{
	Use:   "assign <issue-key> <username>",
	Short: "Assign issue to a user (or '-' to unassign)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := jiraClient()
		key, username := args[0], args[1]

		if username == "-" {
			username = ""
		}
		if err := client.AssignIssue(cmd.Context(), key, username); err != nil {
			presenter.Error(err, "Failed to assign issue")
			os.Exit(1)
		}

		if username == "" {
			presenter.Success("Unassigned: " + key)
		} else {
			presenter.Success(fmt.Sprintf("Assigned: %s -> %s", key, username))
		}
	},
}

var jiraProjectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List available projects",
	Run: func(cmd *cobra.Command, _ []string) {
		client := jiraClient()

		projects, err := client.GetProjects(cmd.Context())
		if err != nil {
			presenter.Error(err, "Failed to list projects")
			os.Exit(1)
		}

		if jsonOutput(cmd) {
			printJSON(projects)
			return
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tNAME")
		for _, p := range projects {
			fmt.Fprintf(tw, "%s\t%s\n", p.Key, p.Name)
		}
		tw.Flush()
	},
}

func init() {
	jiraGetCmd.Flags().StringP("fields", "f", "", "Comma-separated fields")
	jiraGetCmd.Flags().BoolP("comments", "c", false, "Include comments")

	jiraSearchCmd.Flags().IntP("max", "m", 50, "Maximum results")
	jiraSearchCmd.Flags().StringP("fields", "f", "", "Comma-separated fields")

	jiraCreateCmd.Flags().StringP("project", "p", "", "Project key")
	jiraCreateCmd.Flags().StringP("type", "t", "", "Issue type (Bug, Task, Story, etc.)")
	jiraCreateCmd.Flags().StringP("summary", "s", "", "Issue summary/title")
	jiraCreateCmd.Flags().StringP("description", "d", "", "Description")
	jiraCreateCmd.Flags().String("priority", "", "Priority name")
	jiraCreateCmd.Flags().StringP("assignee", "a", "", "Assignee username")
	jiraCreateCmd.Flags().StringP("labels", "l", "", "Comma-separated labels")
	jiraCreateCmd.Flags().String("components", "", "Comma-separated components")
	jiraCreateCmd.MarkFlagRequired("project")
	jiraCreateCmd.MarkFlagRequired("type")
	jiraCreateCmd.MarkFlagRequired("summary")

	jiraUpdateCmd.Flags().StringP("summary", "s", "", "New summary")
	jiraUpdateCmd.Flags().StringP("description", "d", "", "New description")
	jiraUpdateCmd.Flags().String("priority", "", "New priority")
	jiraUpdateCmd.Flags().StringP("labels", "l", "", "Replace labels")
	jiraUpdateCmd.Flags().String("add-labels", "", "Add labels")
	jiraUpdateCmd.Flags().String("remove-labels", "", "Remove labels")

	jiraTransitionCmd.Flags().StringP("comment", "c", "", "Add comment with the transition")

	for _, cmd := range []*cobra.Command{jiraGetCmd, jiraSearchCmd, jiraCreateCmd, jiraTransitionsCmd, jiraProjectsCmd} {
		cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	}

	jiraCmd.AddCommand(jiraGetCmd)
	jiraCmd.AddCommand(jiraSearchCmd)
	jiraCmd.AddCommand(jiraCreateCmd)
	jiraCmd.AddCommand(jiraUpdateCmd)
	jiraCmd.AddCommand(jiraTransitionsCmd)
	jiraCmd.AddCommand(jiraTransitionCmd)
	jiraCmd.AddCommand(jiraCommentCmd)
	jiraCmd.AddCommand(jiraAssignCmd)
	jiraCmd.AddCommand(jiraProjectsCmd)
	rootCmd.AddCommand(jiraCmd)
}

func jiraClient() *jira.Client {
	cfg, err := jira.ConfigFromEnv()
	if err != nil {
		presenter.Error(err, "Jira is not configured")
		os.Exit(1)
	}
	return jira.NewClient(cfg)
}

func jsonOutput(cmd *cobra.Command) bool {
	jsonFlag, err := cmd.Flags().GetBool("json")
	return err == nil && jsonFlag
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		presenter.Error(err, "Failed to encode JSON")
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func typeName(t *jira.IssueType) string {
	if t == nil {
		return "N/A"
	}
	return t.Name
}

func statusName(s *jira.Status) string {
	if s == nil {
		return "N/A"
	}
	return s.Name
}

func priorityName(p *jira.Priority) string {
	if p == nil {
		return "N/A"
	}
	return p.Name
}

func displayNameOf(u *jira.User) string {
	if u == nil {
		return "Unassigned"
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}
