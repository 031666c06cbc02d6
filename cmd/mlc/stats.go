package main

import (
	"fmt"
	"os"

	"github.com/franz/media-janitor/internal/report"
	"github.com/franz/media-janitor/internal/store"
	"github.com/franz/media-janitor/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show library statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	summary, err := report.GenerateLibrarySummary(db)
	if err != nil {
		return fmt.Errorf("failed to gather statistics: %w", err)
	}

	summary.Write(os.Stdout)
	return nil
}
