package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/amitools/amiclone/internal/config"
	"github.com/amitools/amiclone/pkg/db"
	"github.com/amitools/amiclone/pkg/errors"
)

var showCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the per-region results of one clone run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id: %s", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config load failed")
	}

	if err := ensureDirectories(cfg.SQLitePath, ""); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	run, err := repo.GetRun(runID)
	if err != nil {
		return errors.Wrap(err, "run lookup failed")
	}
	if run == nil {
		return fmt.Errorf("run not found: %d", runID)
	}

	fmt.Printf("Run %d: %s from %s (%s)\n", run.ID, run.SourceImageID, run.SourceRegion, run.Status)
	if run.ErrorMessage != "" {
		fmt.Printf("Error: %s\n", run.ErrorMessage)
	}
	fmt.Println()

	results, err := repo.ResultsForRun(runID)
	if err != nil {
		return errors.Wrap(err, "results lookup failed")
	}

	if len(results) == 0 {
		fmt.Println("No region results recorded")
		return nil
	}

	fmt.Printf("%-20s %-10s %-25s %s\n", "REGION", "STATUS", "IMAGE", "ERROR")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, res := range results {
		status, imageID, errorMessage := "failed", "-", res.ErrorMessage
		if res.Success {
			status, imageID, errorMessage = "ok", res.ImageID, "-"
		}
		fmt.Printf("%-20s %-10s %-25s %s\n", res.Region, status, imageID, errorMessage)
	}

	return nil
}
