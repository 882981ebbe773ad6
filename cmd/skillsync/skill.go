package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillsync/pkg/presenter"
	"github.com/jingkaihe/skillsync/pkg/skills"
	"github.com/jingkaihe/skillsync/pkg/sync"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Inspect the canonical skill catalog",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all canonical skills",
	Long:  `List the canonical skills with their names, descriptions, and directory paths.`,
	Run: func(_ *cobra.Command, _ []string) {
		listSkillsCmd()
	},
}

func init() {
	skillCmd.AddCommand(skillListCmd)
	rootCmd.AddCommand(skillCmd)
}

func listSkillsCmd() {
	root := viper.GetString("canonical_root")
	if root == "" {
		root = sync.DefaultCanonicalRoot
	}

	catalog, err := skills.Load(root)
	if err != nil {
		presenter.Error(err, "Failed to load canonical skills")
		os.Exit(1)
	}

	if catalog.Len() == 0 {
		presenter.Info("No skills found")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDIRECTORY\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t---------\t-----------")

	for _, skill := range catalog.Skills() {
		description := skill.Description
		if len(description) > 60 {
			description = description[:57] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", skill.Name, skill.Directory, description)
	}
	tw.Flush()
}
