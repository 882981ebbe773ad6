package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillsync/pkg/presenter"
	"github.com/jingkaihe/skillsync/pkg/skills"
	"github.com/jingkaihe/skillsync/pkg/sync"
)

type SyncConfig struct {
	Check         bool
	CanonicalRoot string
}

func NewSyncConfig() *SyncConfig {
	return &SyncConfig{
		Check:         false,
		CanonicalRoot: sync.DefaultCanonicalRoot,
	}
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize tool configuration trees with the canonical skills",
	Long: `Ensure every tool target holds exactly one entry per canonical skill: a
relative symlink back to the skill directory, or a rendered command file for
tools that require the flat format. Entries with no matching canonical skill
are removed.

With --check, nothing is mutated: drift is reported and the command exits
non-zero if any is found.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getSyncConfigFromFlags(cmd)

		catalog, err := skills.Load(config.CanonicalRoot)
		if err != nil {
			presenter.Error(err, "Failed to load canonical skills")
			os.Exit(1)
		}

		syncer, err := sync.New(catalog, sync.WithCheckMode(config.Check))
		if err != nil {
			presenter.Error(err, "Failed to configure sync")
			os.Exit(1)
		}

		report, err := syncer.Run(ctx)
		if err != nil {
			presenter.Error(err, "Sync aborted")
			os.Exit(1)
		}

		for _, change := range report.Changes {
			if config.Check {
				presenter.Warning(fmt.Sprintf("Out of sync: %s", change))
			} else {
				presenter.Info(fmt.Sprintf("Updated %s", change))
			}
		}

		switch {
		case report.Clean():
			presenter.Success(fmt.Sprintf("All %d skills in sync", catalog.Len()))
		case config.Check:
			presenter.Error(errors.Errorf("%d paths out of sync", len(report.Changes)), "Drift detected")
			os.Exit(1)
		default:
			presenter.Success(fmt.Sprintf("Synced %d skills (%d updates)", catalog.Len(), len(report.Changes)))
		}
	},
}

func init() {
	defaults := NewSyncConfig()
	syncCmd.Flags().Bool("check", defaults.Check, "Report drift without changing anything, exit non-zero if any is found")
	syncCmd.Flags().String("canonical-root", defaults.CanonicalRoot, "Directory holding the canonical skill definitions")
	viper.BindPFlag("canonical_root", syncCmd.Flags().Lookup("canonical-root"))

	rootCmd.AddCommand(syncCmd)
}

func getSyncConfigFromFlags(cmd *cobra.Command) *SyncConfig {
	config := NewSyncConfig()
	if check, err := cmd.Flags().GetBool("check"); err == nil {
		config.Check = check
	}
	if root := viper.GetString("canonical_root"); root != "" {
		config.CanonicalRoot = root
	}
	return config
}
