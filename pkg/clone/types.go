package clone

import (
	"context"

	"github.com/amitools/amiclone/pkg/awsec2"
)

// ImageService is the contract the cloning engine depends on. Each operation
// is expected to apply its own bounded retry for transient failures and to
// surface a single terminal error on exhaustion. *awsec2.Client satisfies it.
type ImageService interface {
	DescribeImage(ctx context.Context, imageID, region string) (*awsec2.ImageDetails, error)
	DescribeLaunchPermissions(ctx context.Context, imageID, region string) ([]awsec2.LaunchPermission, error)
	CopyImage(ctx context.Context, imageID, name, description, sourceRegion, destRegion string) (string, error)
	ApplyTags(ctx context.Context, imageID, region string, tags map[string]string) error
	ModifyLaunchPermissions(ctx context.Context, imageID, region string, add []awsec2.LaunchPermission) error
}

// CloneRequest is the region pipeline's FSM input. The snapshot and permission
// set are taken once from the source image and shared, read-only, by every
// destination region's pipeline.
type CloneRequest struct {
	SourceRegion      string
	DestinationRegion string
	Snapshot          awsec2.ImageDetails
	Permissions       []awsec2.LaunchPermission
}

// CloneResponse is the region pipeline's FSM output, accumulated across
// transitions.
type CloneResponse struct {
	// From the copy step
	ImageID string

	// From the await step: the terminal lifecycle state the copy reached
	State string

	// From the complete step
	Status string
}

// Pipeline state names
const (
	StateCopy        = "copy"
	StateAwait       = "await_completion"
	StateTag         = "tag"
	StatePermissions = "grant_permissions"
	StateComplete    = "complete"
	StateFailed      = "failed"
)
