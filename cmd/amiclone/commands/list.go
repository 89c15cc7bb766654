package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amitools/amiclone/internal/config"
	"github.com/amitools/amiclone/pkg/db"
	"github.com/amitools/amiclone/pkg/errors"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List clone runs and their status",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config load failed")
	}

	// Ensure database directory exists
	if err := ensureDirectories(cfg.SQLitePath, ""); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	runs, err := repo.ListRuns()
	if err != nil {
		return errors.Wrap(err, "list failed")
	}

	if len(runs) == 0 {
		fmt.Println("No clone runs found")
		return nil
	}

	fmt.Printf("%-6s %-25s %-15s %-10s %-22s %s\n", "ID", "SOURCE IMAGE", "REGION", "STATUS", "STARTED", "ERROR")
	fmt.Println("------------------------------------------------------------------------------------------------")

	for _, run := range runs {
		errorMessage := run.ErrorMessage
		if errorMessage == "" {
			errorMessage = "-"
		}

		fmt.Printf("%-6d %-25s %-15s %-10s %-22s %s\n",
			run.ID, run.SourceImageID, run.SourceRegion, run.Status, run.StartedAt, errorMessage)
	}

	return nil
}
