package cmd

import (
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdeck/internal/board"
	"github.com/twiced-technology-gmbh/taskdeck/internal/output"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent local activity",
	Long: `Lists the task changes made from this machine, oldest first. The log lives
next to the config and is never sent to the backend.`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func init() {
	logCmd.Flags().IntP("limit", "n", 20, "number of entries (0 for all)") //nolint:mnd // default page
	logCmd.Flags().Int("task", 0, "only entries for this task id")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	taskID, _ := cmd.Flags().GetInt("task")

	read := limit
	if taskID != 0 {
		read = 0
	}
	entries, err := board.ReadLog(cfg.Dir(), read)
	if err != nil {
		return err
	}
	if taskID != 0 {
		entries = slices.DeleteFunc(entries, func(e board.LogEntry) bool { return e.TaskID != taskID })
		if limit > 0 && len(entries) > limit {
			entries = entries[len(entries)-limit:]
		}
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, entries)
	}
	output.LogTable(os.Stdout, entries)
	return nil
}
