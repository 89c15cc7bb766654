package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/superfly/fsm"

	"github.com/amitools/amiclone/internal/config"
	"github.com/amitools/amiclone/pkg/awsec2"
	"github.com/amitools/amiclone/pkg/clone"
	"github.com/amitools/amiclone/pkg/db"
	"github.com/amitools/amiclone/pkg/errors"
)

var cloneCmd = &cobra.Command{
	Use:   "clone <source-image-id>",
	Short: "Clone an AMI into the configured destination regions",
	Args:  cobra.ExactArgs(1),
	RunE:  runClone,
}

func init() {
	rootCmd.AddCommand(cloneCmd)
}

func runClone(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config load failed")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "config invalid")
	}
	cfg.SourceImageID = args[0]

	// Ensure all necessary directories exist
	if err := ensureDirectories(cfg.SQLitePath, cfg.FSMDBPath); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	client, err := awsec2.NewClient(ctx, cfg.ClientOptions())
	if err != nil {
		return errors.Wrap(err, "EC2 client failed")
	}

	manager, err := fsm.New(fsm.Config{DBPath: cfg.FSMDBPath})
	if err != nil {
		return errors.Wrap(err, "FSM manager failed")
	}
	defer manager.Shutdown(10 * time.Second)

	runID, err := repo.CreateRun(cfg.SourceImageID, cfg.SourceRegion)
	if err != nil {
		return errors.Wrap(err, "run record failed")
	}

	orch := clone.NewOrchestrator(cfg.CloneConfig(), client, manager)
	report, cloneErr := orch.CloneImage(ctx)

	recordRun(repo, runID, report, cloneErr)
	printReport(report)

	return cloneErr
}

// recordRun persists the report into run history. Persistence failures are
// logged but never mask the clone outcome.
func recordRun(repo *db.Repository, runID int64, report *clone.Report, cloneErr error) {
	for _, region := range report.Regions() {
		outcome, _ := report.Outcome(region)
		errorMessage := ""
		if outcome.Err != nil {
			errorMessage = outcome.Err.Error()
		}
		if err := repo.AddResult(runID, region, outcome.Success, outcome.ImageID, errorMessage); err != nil {
			slog.Error("run_result_record_failed", "run_id", runID, "region", region, "error", err)
		}
	}

	errorMessage := ""
	if cloneErr != nil {
		errorMessage = cloneErr.Error()
	}
	if err := repo.CompleteRun(runID, cloneErr == nil, errorMessage); err != nil {
		slog.Error("run_complete_record_failed", "run_id", runID, "error", err)
	}
}

func printReport(report *clone.Report) {
	fmt.Printf("%-20s %-10s %-25s %s\n", "REGION", "STATUS", "IMAGE", "ERROR")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, region := range report.Regions() {
		outcome, _ := report.Outcome(region)
		if outcome.Success {
			fmt.Printf("%-20s %-10s %-25s %s\n", region, "ok", outcome.ImageID, "-")
		} else {
			fmt.Printf("%-20s %-10s %-25s %v\n", region, "failed", "-", outcome.Err)
		}
	}
}
