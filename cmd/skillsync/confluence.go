package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillsync/pkg/confluence"
	"github.com/jingkaihe/skillsync/pkg/presenter"
)

var confluenceCmd = &cobra.Command{
	Use:   "confluence",
	Short: "Confluence Data Center helper commands",
	Long: `Thin wrappers over the Confluence Data Center REST API used by the
confluence-datacenter skill. Configure via CONFLUENCE_BASE_URL plus
CONFLUENCE_PAT, or CONFLUENCE_USERNAME and CONFLUENCE_PASSWORD.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var confluenceGetCmd = &cobra.Command{
	Use:   "get [page-id]",
	Short: "Get a page by ID, or by --space and --title",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := confluenceClient()

		space, _ := cmd.Flags().GetString("space")
		title, _ := cmd.Flags().GetString("title")
		format, _ := cmd.Flags().GetString("format")

		var page *confluence.Page
		var err error
		switch {
		case len(args) == 1:
			page, err = client.GetPage(cmd.Context(), args[0])
		case space != "" && title != "":
			page, err = client.GetPageByTitle(cmd.Context(), space, title)
		default:
			presenter.Error(errors.New("missing page reference"), "Provide a page ID or both --space and --title")
			os.Exit(1)
		}
		if err != nil {
			presenter.Error(err, "Failed to get page")
			os.Exit(1)
		}

		if jsonOutput(cmd) {
			printJSON(page)
			return
		}

		presenter.Section(page.Title)
		presenter.Info("ID: " + page.ID)
		if page.Space != nil {
			presenter.Info("Space: " + page.Space.Key)
		}
		if page.Version != nil {
			presenter.Info(fmt.Sprintf("Version: %d", page.Version.Number))
		}
		presenter.Info(fmt.Sprintf("URL: %s/pages/viewpage.action?pageId=%s\n", client.BaseURL(), page.ID))

		body := page.StorageBody()
		if format == "markdown" {
			body, err = confluence.StorageToMarkdown(body)
			if err != nil {
				presenter.Error(err, "Failed to convert page body")
				os.Exit(1)
			}
		}
		fmt.Println(body)
	},
}

var confluenceSearchCmd = &cobra.Command{
	Use:   "search <cql>",
	Short: "Search content using CQL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := confluenceClient()

		maxResults, _ := cmd.Flags().GetInt("max")
		contentType, _ := cmd.Flags().GetString("type")

		list, err := client.Search(cmd.Context(), args[0], maxResults, contentType)
		if err != nil {
			presenter.Error(err, "Search failed")
			os.Exit(1)
		}

		if jsonOutput(cmd) {
			printJSON(list)
			return
		}

		presenter.Info(fmt.Sprintf("Found %d results\n", len(list.Results)))
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSPACE\tTITLE")
		for _, page := range list.Results {
			spaceKey := ""
			if page.Space != nil {
				spaceKey = page.Space.Key
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", page.ID, spaceKey, page.Title)
		}
		tw.Flush()
	},
}

var confluenceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a page from markdown",
	Run: func(cmd *cobra.Command, _ []string) {
		client := confluenceClient()

		space, _ := cmd.Flags().GetString("space")
		title, _ := cmd.Flags().GetString("title")
		parent, _ := cmd.Flags().GetString("parent")

		body, err := readBodyFlags(cmd)
		if err != nil {
			presenter.Error(err, "Failed to read page body")
			os.Exit(1)
		}

		page, err := client.CreatePage(cmd.Context(), confluence.CreatePageInput{
			SpaceKey: space,
			Title:    title,
			Body:     body,
			ParentID: parent,
		})
		if err != nil {
			presenter.Error(err, "Failed to create page")
			os.Exit(1)
		}

		presenter.Success("Created page: " + page.ID)
		presenter.Info(fmt.Sprintf("URL: %s/pages/viewpage.action?pageId=%s", client.BaseURL(), page.ID))
	},
}

var confluenceUpdateCmd = &cobra.Command{
	Use:   "update <page-id>",
	Short: "Update a page's title and/or body",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := confluenceClient()

		title, _ := cmd.Flags().GetString("title")
		minor, _ := cmd.Flags().GetBool("minor")

		body, err := readBodyFlags(cmd)
		if err != nil {
			presenter.Error(err, "Failed to read page body")
			os.Exit(1)
		}
		if title == "" && body == "" {
			presenter.Error(errors.New("nothing to update"), "Provide --title, --body or --body-file")
			os.Exit(1)
		}

		page, err := client.UpdatePage(cmd.Context(), args[0], confluence.UpdatePageInput{
			Title:     title,
			Body:      body,
			MinorEdit: minor,
		})
		if err != nil {
			presenter.Error(err, "Failed to update page")
			os.Exit(1)
		}

		version := 0
		if page.Version != nil {
			version = page.Version.Number
		}
		presenter.Success(fmt.Sprintf("Updated page %s (version %d)", page.ID, version))
	},
}

var confluenceDeleteCmd = &cobra.Command{
	Use:   "delete <page-id>",
	Short: "Delete a page",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := confluenceClient()

		if err := client.DeletePage(cmd.Context(), args[0]); err != nil {
			presenter.Error(err, "Failed to delete page")
			os.Exit(1)
		}
		presenter.Success("Deleted page: " + args[0])
	},
}

var confluenceChildrenCmd = &cobra.Command{
	Use:   "children <page-id>",
	Short: "List a page's child pages",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := confluenceClient()

		maxResults, _ := cmd.Flags().GetInt("max")
		list, err := client.GetChildren(cmd.Context(), args[0], maxResults)
		if err != nil {
			presenter.Error(err, "Failed to list children")
			os.Exit(1)
		}

		if jsonOutput(cmd) {
			printJSON(list)
			return
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE")
		for _, page := range list.Results {
			fmt.Fprintf(tw, "%s\t%s\n", page.ID, page.Title)
		}
		tw.Flush()
	},
}

var confluenceSpacesCmd = &cobra.Command{
	Use:   "spaces",
	Short: "List spaces",
	Run: func(cmd *cobra.Command, _ []string) {
		client := confluenceClient()

		spaceType, _ := cmd.Flags().GetString("type")
		list, err := client.GetSpaces(cmd.Context(), spaceType)
		if err != nil {
			presenter.Error(err, "Failed to list spaces")
			os.Exit(1)
		}

		if jsonOutput(cmd) {
			printJSON(list)
			return
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tTYPE\tNAME")
		for _, space := range list.Results {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", space.Key, space.Type, space.Name)
		}
		tw.Flush()
	},
}

var confluenceAttachmentsCmd = &cobra.Command{
	Use:   "attachments <page-id>",
	Short: "List a page's attachments",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := confluenceClient()

		list, err := client.GetAttachments(cmd.Context(), args[0])
		if err != nil {
			presenter.Error(err, "Failed to list attachments")
			os.Exit(1)
		}

		if jsonOutput(cmd) {
			printJSON(list)
			return
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE")
		for _, att := range list.Results {
			fmt.Fprintf(tw, "%s\t%s\n", att.ID, att.Title)
		}
		tw.Flush()
	},
}

var confluenceUploadCmd = &cobra.Command{
	Use:   "upload <page-id> <file>",
	Short: "Attach a local file to a page",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := confluenceClient()

		list, err := client.UploadAttachment(cmd.Context(), args[0], args[1])
		if err != nil {
			presenter.Error(err, "Failed to upload attachment")
			os.Exit(1)
		}
		for _, att := range list.Results {
			presenter.Success(fmt.Sprintf("Uploaded: %s (id %s)", att.Title, att.ID))
		}
	},
}

var confluenceExportPDFCmd = &cobra.Command{
	Use:   "export-pdf <page-id>",
	Short: "Export a page as PDF",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := confluenceClient()
		pageID := args[0]

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = pageID + ".pdf"
		}

		data, err := client.ExportPDF(cmd.Context(), pageID)
		if err != nil {
			presenter.Error(err, "Failed to export PDF")
			os.Exit(1)
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			presenter.Error(err, "Failed to write PDF")
			os.Exit(1)
		}

		abs, err := filepath.Abs(output)
		if err != nil {
			abs = output
		}
		presenter.Success("Exported PDF: " + abs)
	},
}

func init() {
	confluenceGetCmd.Flags().StringP("space", "s", "", "Space key (with --title)")
	confluenceGetCmd.Flags().StringP("title", "t", "", "Page title (with --space)")
	confluenceGetCmd.Flags().StringP("format", "f", "markdown", "Body format: markdown or storage")

	confluenceSearchCmd.Flags().IntP("max", "m", 25, "Maximum results")
	confluenceSearchCmd.Flags().StringP("type", "t", "", "Restrict to a content type (page, blogpost)")

	confluenceCreateCmd.Flags().StringP("space", "s", "", "Space key")
	confluenceCreateCmd.Flags().StringP("title", "t", "", "Page title")
	confluenceCreateCmd.Flags().StringP("parent", "p", "", "Parent page ID")
	confluenceCreateCmd.Flags().StringP("body", "b", "", "Page body in markdown")
	confluenceCreateCmd.Flags().String("body-file", "", "Read page body from a markdown file")
	confluenceCreateCmd.Flags().Bool("storage", false, "Treat the body as raw storage format")
	confluenceCreateCmd.MarkFlagRequired("space")
	confluenceCreateCmd.MarkFlagRequired("title")

	confluenceUpdateCmd.Flags().StringP("title", "t", "", "New title")
	confluenceUpdateCmd.Flags().StringP("body", "b", "", "New body in markdown")
	confluenceUpdateCmd.Flags().String("body-file", "", "Read new body from a markdown file")
	confluenceUpdateCmd.Flags().Bool("storage", false, "Treat the body as raw storage format")
	confluenceUpdateCmd.Flags().Bool("minor", false, "Mark as a minor edit")

	confluenceChildrenCmd.Flags().IntP("max", "m", 50, "Maximum results")

	confluenceSpacesCmd.Flags().StringP("type", "t", "", "Space type (global, personal)")

	confluenceExportPDFCmd.Flags().StringP("output", "o", "", "Output path (default <page-id>.pdf)")

	for _, cmd := range []*cobra.Command{
		confluenceGetCmd, confluenceSearchCmd, confluenceChildrenCmd,
		confluenceSpacesCmd, confluenceAttachmentsCmd,
	} {
		cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	}

	confluenceCmd.AddCommand(confluenceGetCmd)
	confluenceCmd.AddCommand(confluenceSearchCmd)
	confluenceCmd.AddCommand(confluenceCreateCmd)
	confluenceCmd.AddCommand(confluenceUpdateCmd)
	confluenceCmd.AddCommand(confluenceDeleteCmd)
	confluenceCmd.AddCommand(confluenceChildrenCmd)
	confluenceCmd.AddCommand(confluenceSpacesCmd)
	confluenceCmd.AddCommand(confluenceAttachmentsCmd)
	confluenceCmd.AddCommand(confluenceUploadCmd)
	confluenceCmd.AddCommand(confluenceExportPDFCmd)
	rootCmd.AddCommand(confluenceCmd)
}

func confluenceClient() *confluence.Client {
	cfg, err := confluence.ConfigFromEnv()
	if err != nil {
		presenter.Error(err, "Confluence is not configured")
		os.Exit(1)
	}
	return confluence.NewClient(cfg)
}

// readBodyFlags resolves --body / --body-file and converts markdown to
// storage format unless --storage is set.
func readBodyFlags(cmd *cobra.Command) (string, error) {
	body, _ := cmd.Flags().GetString("body")
	bodyFile, _ := cmd.Flags().GetString("body-file")
	rawStorage, _ := cmd.Flags().GetBool("storage")

	if body != "" && bodyFile != "" {
		return "", errors.New("--body and --body-file are mutually exclusive")
	}
	if bodyFile != "" {
		data, err := os.ReadFile(bodyFile)
		if err != nil {
			return "", errors.Wrap(err, "reading body file")
		}
		body = string(data)
	}
	if body == "" || rawStorage {
		return body, nil
	}
	return confluence.MarkdownToStorage(body)
}
