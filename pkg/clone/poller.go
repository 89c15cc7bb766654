package clone

import (
	"context"
	"log/slog"
	"time"

	"github.com/amitools/amiclone/pkg/awsec2"
)

// CompletionPoller blocks until an image leaves the "pending" state. It does
// not interpret which terminal state was reached; that is left to the caller.
// Query errors abort the poll immediately; retries of the underlying call are
// the service client's responsibility.
type CompletionPoller struct {
	service  ImageService
	interval time.Duration
}

// NewCompletionPoller creates a poller with a fixed check interval. A zero
// interval polls as fast as the underlying call permits.
func NewCompletionPoller(service ImageService, interval time.Duration) *CompletionPoller {
	return &CompletionPoller{
		service:  service,
		interval: interval,
	}
}

// Wait polls the image's lifecycle state until it is no longer pending and
// returns the terminal state it observed.
func (p *CompletionPoller) Wait(ctx context.Context, imageID, region string) (string, error) {
	slog.Info("poll_started", "image_id", imageID, "region", region, "interval", p.interval)

	for {
		details, err := p.service.DescribeImage(ctx, imageID, region)
		if err != nil {
			slog.Error("poll_query_failed", "image_id", imageID, "region", region, "error", err)
			return "", err
		}

		if details.State != awsec2.StatePending {
			slog.Info("poll_complete", "image_id", imageID, "region", region, "state", details.State)
			return details.State, nil
		}

		slog.Info("poll_pending", "image_id", imageID, "region", region)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.interval):
		}
	}
}
