// Package awsec2 wraps the EC2 API calls needed to clone an AMI across regions.
// Every call applies a bounded retry with a fixed delay; permanent conditions
// (such as a missing image) are surfaced immediately.
package awsec2

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	apperrors "github.com/amitools/amiclone/pkg/errors"
	"github.com/amitools/amiclone/pkg/retry"
)

// ErrImageNotFound is returned when a describe call matches zero images.
var ErrImageNotFound = errors.New("image not found")

// API is the subset of the EC2 client used by this package. *ec2.Client
// satisfies it; tests substitute a fake.
type API interface {
	DescribeImages(ctx context.Context, params *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error)
	DescribeImageAttribute(ctx context.Context, params *ec2.DescribeImageAttributeInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImageAttributeOutput, error)
	CopyImage(ctx context.Context, params *ec2.CopyImageInput, optFns ...func(*ec2.Options)) (*ec2.CopyImageOutput, error)
	CreateTags(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
	ModifyImageAttribute(ctx context.Context, params *ec2.ModifyImageAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyImageAttributeOutput, error)
}

// Options configures the client's per-call retry policy.
type Options struct {
	RetryAttempts int
	RetryDelay    time.Duration
}

// Client provides region-scoped EC2 image operations.
type Client struct {
	api      func(region string) API
	attempts int
	delay    time.Duration
}

// NewClient creates a client backed by the default AWS credential chain. A
// single shared config is loaded once; per-call regions override it.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	slog.Info("ec2_client_init")

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("aws_config_load_failed", "error", err)
		return nil, apperrors.Wrap(err, "failed to load AWS config")
	}

	api := func(region string) API {
		return ec2.NewFromConfig(cfg, func(o *ec2.Options) {
			o.Region = region
		})
	}

	return NewClientWithAPI(api, opts), nil
}

// NewClientWithAPI creates a client over an injected per-region API factory.
func NewClientWithAPI(api func(region string) API, opts Options) *Client {
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	return &Client{
		api:      api,
		attempts: opts.RetryAttempts,
		delay:    opts.RetryDelay,
	}
}

func (c *Client) retryOpts() []retry.Option {
	return []retry.Option{
		retry.WithAttempts(c.attempts),
		retry.WithDelay(c.delay),
	}
}

// DescribeImage returns the descriptive facts of one image in one region.
// Fails with ErrImageNotFound when zero images match.
func (c *Client) DescribeImage(ctx context.Context, imageID, region string) (*ImageDetails, error) {
	slog.Info("ec2_describe_image", "image_id", imageID, "region", region)

	var details *ImageDetails
	err := retry.Do(ctx, func() error {
		out, err := c.api(region).DescribeImages(ctx, &ec2.DescribeImagesInput{
			ImageIds: []string{imageID},
		})
		if err != nil {
			return err
		}
		if len(out.Images) == 0 {
			return retry.Fatal(fmt.Errorf("%w: %s in %s", ErrImageNotFound, imageID, region))
		}

		img := out.Images[0]
		details = &ImageDetails{
			ImageID:     aws.ToString(img.ImageId),
			Name:        aws.ToString(img.Name),
			Description: aws.ToString(img.Description),
			State:       string(img.State),
			Tags:        tagsToMap(img.Tags),
		}
		return nil
	}, c.retryOpts()...)

	if err != nil {
		slog.Error("ec2_describe_image_failed", "image_id", imageID, "region", region, "error", err)
		return nil, apperrors.Wrapf(err, "failed to describe image %s in %s", imageID, region)
	}

	slog.Info("ec2_describe_image_complete", "image_id", imageID, "region", region, "state", details.State)
	return details, nil
}

// DescribeLaunchPermissions returns the launch-permission grants of one image.
func (c *Client) DescribeLaunchPermissions(ctx context.Context, imageID, region string) ([]LaunchPermission, error) {
	slog.Info("ec2_describe_launch_permissions", "image_id", imageID, "region", region)

	var perms []LaunchPermission
	err := retry.Do(ctx, func() error {
		out, err := c.api(region).DescribeImageAttribute(ctx, &ec2.DescribeImageAttributeInput{
			ImageId:   aws.String(imageID),
			Attribute: types.ImageAttributeNameLaunchPermission,
		})
		if err != nil {
			return err
		}

		perms = make([]LaunchPermission, 0, len(out.LaunchPermissions))
		for _, p := range out.LaunchPermissions {
			perms = append(perms, LaunchPermission{
				UserID:                aws.ToString(p.UserId),
				Group:                 string(p.Group),
				OrganizationArn:       aws.ToString(p.OrganizationArn),
				OrganizationalUnitArn: aws.ToString(p.OrganizationalUnitArn),
			})
		}
		return nil
	}, c.retryOpts()...)

	if err != nil {
		slog.Error("ec2_describe_launch_permissions_failed", "image_id", imageID, "region", region, "error", err)
		return nil, apperrors.Wrapf(err, "failed to describe launch permissions of %s in %s", imageID, region)
	}

	slog.Info("ec2_describe_launch_permissions_complete", "image_id", imageID, "region", region, "grant_count", len(perms))
	return perms, nil
}

// CopyImage requests a copy of the source image into the destination region
// and returns the new image's identifier.
func (c *Client) CopyImage(ctx context.Context, imageID, name, description, sourceRegion, destRegion string) (string, error) {
	slog.Info("ec2_copy_image", "image_id", imageID, "source_region", sourceRegion, "destination_region", destRegion)

	var newImageID string
	err := retry.Do(ctx, func() error {
		out, err := c.api(destRegion).CopyImage(ctx, &ec2.CopyImageInput{
			SourceImageId: aws.String(imageID),
			SourceRegion:  aws.String(sourceRegion),
			Name:          aws.String(name),
			Description:   aws.String(description),
		})
		if err != nil {
			return err
		}
		newImageID = aws.ToString(out.ImageId)
		return nil
	}, c.retryOpts()...)

	if err != nil {
		slog.Error("ec2_copy_image_failed", "image_id", imageID, "destination_region", destRegion, "error", err)
		return "", apperrors.Wrapf(err, "failed to copy image %s to %s", imageID, destRegion)
	}

	slog.Info("ec2_copy_image_complete", "image_id", imageID, "destination_region", destRegion, "new_image_id", newImageID)
	return newImageID, nil
}

// ApplyTags applies the tag set to an image, verbatim.
func (c *Client) ApplyTags(ctx context.Context, imageID, region string, tags map[string]string) error {
	slog.Info("ec2_apply_tags", "image_id", imageID, "region", region, "tag_count", len(tags))

	err := retry.Do(ctx, func() error {
		_, err := c.api(region).CreateTags(ctx, &ec2.CreateTagsInput{
			Resources: []string{imageID},
			Tags:      mapToTags(tags),
		})
		return err
	}, c.retryOpts()...)

	if err != nil {
		slog.Error("ec2_apply_tags_failed", "image_id", imageID, "region", region, "error", err)
		return apperrors.Wrapf(err, "failed to tag image %s in %s", imageID, region)
	}

	slog.Info("ec2_apply_tags_complete", "image_id", imageID, "region", region)
	return nil
}

// ModifyLaunchPermissions adds launch-permission grants to an image. The
// modification is additive; existing grants are never replaced.
func (c *Client) ModifyLaunchPermissions(ctx context.Context, imageID, region string, add []LaunchPermission) error {
	slog.Info("ec2_modify_launch_permissions", "image_id", imageID, "region", region, "grant_count", len(add))

	grants := make([]types.LaunchPermission, 0, len(add))
	for _, p := range add {
		grant := types.LaunchPermission{}
		if p.UserID != "" {
			grant.UserId = aws.String(p.UserID)
		}
		if p.Group != "" {
			grant.Group = types.PermissionGroup(p.Group)
		}
		if p.OrganizationArn != "" {
			grant.OrganizationArn = aws.String(p.OrganizationArn)
		}
		if p.OrganizationalUnitArn != "" {
			grant.OrganizationalUnitArn = aws.String(p.OrganizationalUnitArn)
		}
		grants = append(grants, grant)
	}

	err := retry.Do(ctx, func() error {
		_, err := c.api(region).ModifyImageAttribute(ctx, &ec2.ModifyImageAttributeInput{
			ImageId: aws.String(imageID),
			LaunchPermission: &types.LaunchPermissionModifications{
				Add: grants,
			},
		})
		return err
	}, c.retryOpts()...)

	if err != nil {
		slog.Error("ec2_modify_launch_permissions_failed", "image_id", imageID, "region", region, "error", err)
		return apperrors.Wrapf(err, "failed to modify launch permissions of %s in %s", imageID, region)
	}

	slog.Info("ec2_modify_launch_permissions_complete", "image_id", imageID, "region", region)
	return nil
}

func tagsToMap(tags []types.Tag) map[string]string {
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		m[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return m
}

func mapToTags(m map[string]string) []types.Tag {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tags := make([]types.Tag, 0, len(m))
	for _, k := range keys {
		tags = append(tags, types.Tag{
			Key:   aws.String(k),
			Value: aws.String(m[k]),
		})
	}
	return tags
}
