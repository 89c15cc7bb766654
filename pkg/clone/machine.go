// Package clone implements the AMI cross-region cloning engine. The per-region
// pipeline (copy, await completion, tag, grant launch permissions) runs as a
// superfly/fsm state machine; the orchestrator fans one pipeline out per
// destination region and aggregates every outcome into a single report.
package clone

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/superfly/fsm"

	"github.com/amitools/amiclone/pkg/awsec2"
	"github.com/amitools/amiclone/pkg/errors"
)

// Machine holds dependencies for the region pipeline's FSM transitions.
type Machine struct {
	service ImageService
	poller  *CompletionPoller
}

// NewMachine creates a region pipeline machine. The poll interval governs the
// await-completion step.
func NewMachine(service ImageService, pollInterval time.Duration) *Machine {
	return &Machine{
		service: service,
		poller:  NewCompletionPoller(service, pollInterval),
	}
}

// Register registers the region pipeline FSM on the manager. Each step is
// gated on the previous step's success; a step failure aborts the machine and
// leaves already-applied steps in place (no rollback).
func (m *Machine) Register(ctx context.Context, manager *fsm.Manager) (fsm.Start[CloneRequest, CloneResponse], fsm.Resume, error) {
	start, resume, err := fsm.Register[CloneRequest, CloneResponse](manager, "region-clone").
		Start(StateCopy, m.handleCopy).
		To(StateAwait, m.handleAwaitCompletion).
		To(StateTag, m.handleTag).
		To(StatePermissions, m.handleGrantPermissions).
		To(StateComplete, m.handleComplete).
		End(StateFailed).
		Build(ctx)

	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to register region pipeline FSM")
	}

	return start, resume, nil
}

// handleCopy requests the destination copy and records the new image ID.
func (m *Machine) handleCopy(ctx context.Context, req *fsm.Request[CloneRequest, CloneResponse]) (*fsm.Response[CloneResponse], error) {
	slog.Info("pipeline_copy", "destination_region", req.Msg.DestinationRegion, "source_image_id", req.Msg.Snapshot.ImageID)

	resp := req.W.Msg
	if resp == nil {
		resp = &CloneResponse{}
	}

	newImageID, err := m.service.CopyImage(ctx,
		req.Msg.Snapshot.ImageID,
		req.Msg.Snapshot.Name,
		req.Msg.Snapshot.Description,
		req.Msg.SourceRegion,
		req.Msg.DestinationRegion)
	if err != nil {
		slog.Error("pipeline_copy_failed", "destination_region", req.Msg.DestinationRegion, "error", err)
		return nil, fsm.Abort(errors.Wrapf(err, "copy to %s failed", req.Msg.DestinationRegion))
	}

	resp.ImageID = newImageID
	slog.Info("pipeline_copy_complete", "destination_region", req.Msg.DestinationRegion, "new_image_id", newImageID)

	return fsm.NewResponse(resp), nil
}

// handleAwaitCompletion blocks until the copy leaves the pending state. Any
// terminal state counts as done, including "failed": later steps are then
// expected to fail naturally against the unusable image.
func (m *Machine) handleAwaitCompletion(ctx context.Context, req *fsm.Request[CloneRequest, CloneResponse]) (*fsm.Response[CloneResponse], error) {
	slog.Info("pipeline_await_completion", "destination_region", req.Msg.DestinationRegion)

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized at %s", StateAwait))
	}

	state, err := m.poller.Wait(ctx, resp.ImageID, req.Msg.DestinationRegion)
	if err != nil {
		slog.Error("pipeline_await_failed", "destination_region", req.Msg.DestinationRegion, "image_id", resp.ImageID, "error", err)
		return nil, fsm.Abort(errors.Wrapf(err, "waiting for %s in %s failed", resp.ImageID, req.Msg.DestinationRegion))
	}

	resp.State = state
	if state != awsec2.StateAvailable {
		slog.Warn("pipeline_copy_terminal_state", "destination_region", req.Msg.DestinationRegion, "image_id", resp.ImageID, "state", state)
	}

	return fsm.NewResponse(resp), nil
}

// handleTag applies the source tag set to the copy, verbatim.
func (m *Machine) handleTag(ctx context.Context, req *fsm.Request[CloneRequest, CloneResponse]) (*fsm.Response[CloneResponse], error) {
	slog.Info("pipeline_tag", "destination_region", req.Msg.DestinationRegion, "tag_count", len(req.Msg.Snapshot.Tags))

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized at %s", StateTag))
	}

	if len(req.Msg.Snapshot.Tags) == 0 {
		slog.Info("pipeline_tag_skipped", "destination_region", req.Msg.DestinationRegion, "reason", "no_tags")
		return fsm.NewResponse(resp), nil
	}

	if err := m.service.ApplyTags(ctx, resp.ImageID, req.Msg.DestinationRegion, req.Msg.Snapshot.Tags); err != nil {
		slog.Error("pipeline_tag_failed", "destination_region", req.Msg.DestinationRegion, "image_id", resp.ImageID, "error", err)
		return nil, fsm.Abort(errors.Wrapf(err, "tagging %s in %s failed", resp.ImageID, req.Msg.DestinationRegion))
	}

	return fsm.NewResponse(resp), nil
}

// handleGrantPermissions adds the source launch-permission grants to the copy.
// The copy is newly created and has no grants of its own, so an additive
// modification reproduces the source permissions exactly.
func (m *Machine) handleGrantPermissions(ctx context.Context, req *fsm.Request[CloneRequest, CloneResponse]) (*fsm.Response[CloneResponse], error) {
	slog.Info("pipeline_grant_permissions", "destination_region", req.Msg.DestinationRegion, "grant_count", len(req.Msg.Permissions))

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized at %s", StatePermissions))
	}

	if len(req.Msg.Permissions) == 0 {
		slog.Info("pipeline_grant_permissions_skipped", "destination_region", req.Msg.DestinationRegion, "reason", "no_grants")
		return fsm.NewResponse(resp), nil
	}

	if err := m.service.ModifyLaunchPermissions(ctx, resp.ImageID, req.Msg.DestinationRegion, req.Msg.Permissions); err != nil {
		slog.Error("pipeline_grant_permissions_failed", "destination_region", req.Msg.DestinationRegion, "image_id", resp.ImageID, "error", err)
		return nil, fsm.Abort(errors.Wrapf(err, "granting launch permissions on %s in %s failed", resp.ImageID, req.Msg.DestinationRegion))
	}

	return fsm.NewResponse(resp), nil
}

// handleComplete marks the pipeline finished.
func (m *Machine) handleComplete(ctx context.Context, req *fsm.Request[CloneRequest, CloneResponse]) (*fsm.Response[CloneResponse], error) {
	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized at %s", StateComplete))
	}

	resp.Status = StateComplete
	slog.Info("pipeline_complete", "destination_region", req.Msg.DestinationRegion, "image_id", resp.ImageID, "state", resp.State)

	return fsm.NewResponse(resp), nil
}
