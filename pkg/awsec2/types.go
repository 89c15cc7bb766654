package awsec2

import (
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// Image lifecycle states as reported by EC2. A copy is "pending" until the
// provider moves it to a terminal state (available, failed, ...).
const (
	StatePending   = string(types.ImageStatePending)
	StateAvailable = string(types.ImageStateAvailable)
	StateFailed    = string(types.ImageStateFailed)
)

// ImageDetails holds the descriptive facts of an AMI that are replicated to
// every destination copy.
type ImageDetails struct {
	ImageID     string
	Name        string
	Description string
	State       string
	Tags        map[string]string
}

// LaunchPermission is a single launch-permission grant on an AMI. Exactly one
// of the fields identifies the grantee; all are copied verbatim.
type LaunchPermission struct {
	UserID                string
	Group                 string
	OrganizationArn       string
	OrganizationalUnitArn string
}
