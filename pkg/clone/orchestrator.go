package clone

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/superfly/fsm"

	"github.com/amitools/amiclone/pkg/awsec2"
	"github.com/amitools/amiclone/pkg/errors"
)

// Orchestrator drives one end-to-end clone operation: it validates the
// configuration, snapshots the source image once, fans a region pipeline out
// per destination region, and always returns a complete report.
type Orchestrator struct {
	cfg     Config
	service ImageService
	manager *fsm.Manager

	registerOnce sync.Once
	start        fsm.Start[CloneRequest, CloneResponse]
	registerErr  error
}

// NewOrchestrator creates an orchestrator over an image service and an FSM
// manager. The configuration is treated as immutable.
func NewOrchestrator(cfg Config, service ImageService, manager *fsm.Manager) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		service: service,
		manager: manager,
	}
}

// CloneImage runs the clone operation. The returned report always contains an
// entry for every configured destination region, whatever happened; the error
// is non-nil when configuration was invalid, the source lookups failed, or at
// least one region's pipeline failed. With multiple region failures the error
// is the first failure by configuration order, not by completion time.
func (o *Orchestrator) CloneImage(ctx context.Context) (*Report, error) {
	report := NewReport(o.cfg.DestinationRegions)

	if violations := o.cfg.Validate(); len(violations) > 0 {
		err := ValidationError(violations)
		slog.Error("clone_config_invalid", "violation_count", len(violations), "error", err)
		return report, err
	}

	slog.Info("clone_started",
		"source_image_id", o.cfg.SourceImageID,
		"source_region", o.cfg.SourceRegion,
		"destination_count", report.Len())

	snapshot, err := o.service.DescribeImage(ctx, o.cfg.SourceImageID, o.cfg.SourceRegion)
	if err != nil {
		slog.Error("clone_source_describe_failed", "source_image_id", o.cfg.SourceImageID, "error", err)
		return report, errors.Wrap(err, "failed to describe source image")
	}

	permissions, err := o.service.DescribeLaunchPermissions(ctx, o.cfg.SourceImageID, o.cfg.SourceRegion)
	if err != nil {
		slog.Error("clone_source_permissions_failed", "source_image_id", o.cfg.SourceImageID, "error", err)
		return report, errors.Wrap(err, "failed to describe source launch permissions")
	}

	o.registerOnce.Do(func() {
		machine := NewMachine(o.service, o.cfg.ProgressCheckInterval)
		o.start, _, o.registerErr = machine.Register(ctx, o.manager)
	})
	if o.registerErr != nil {
		return report, o.registerErr
	}

	var wg sync.WaitGroup
	for _, region := range report.Regions() {
		wg.Add(1)
		go func(region string) {
			defer wg.Done()
			report.set(region, o.cloneRegion(ctx, region, snapshot, permissions))
		}(region)
	}
	wg.Wait()

	err = report.FirstError()
	if err != nil {
		slog.Error("clone_finished_with_failures", "source_image_id", o.cfg.SourceImageID, "error", err)
	} else {
		slog.Info("clone_complete", "source_image_id", o.cfg.SourceImageID, "destination_count", report.Len())
	}

	return report, err
}

// cloneRegion runs one region's pipeline to completion and returns its
// terminal outcome. Failures are scoped to the region; sibling regions are
// never aborted.
func (o *Orchestrator) cloneRegion(ctx context.Context, region string, snapshot *awsec2.ImageDetails, permissions []awsec2.LaunchPermission) RegionOutcome {
	req := &CloneRequest{
		SourceRegion:      o.cfg.SourceRegion,
		DestinationRegion: region,
		Snapshot:          *snapshot,
		Permissions:       permissions,
	}
	resp := &CloneResponse{}

	key := fmt.Sprintf("%s/%s", o.cfg.SourceImageID, region)

	version, err := o.start(ctx, key, fsm.NewRequest(req, resp))
	if err == nil {
		err = o.manager.Wait(ctx, version)
	}
	if err != nil {
		slog.Error("region_clone_failed", "region", region, "error", err)
		return RegionOutcome{Err: err}
	}

	slog.Info("region_clone_complete", "region", region, "image_id", resp.ImageID)
	return RegionOutcome{Success: true, ImageID: resp.ImageID}
}
