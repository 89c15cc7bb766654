package clone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amitools/amiclone/pkg/awsec2"
)

// fakeService implements ImageService in memory with per-region failure
// injection and call counters.
type fakeService struct {
	mu sync.Mutex

	source      awsec2.ImageDetails
	permissions []awsec2.LaunchPermission

	describeSourceCalls int
	describeSourceErr   error
	permissionCalls     int
	permissionErr       error

	// Polls on a copied image report "pending" this many times before
	// reporting "available".
	pendingTicks int

	copySeq     int
	copyCalls   map[string]int
	copyErr     map[string]error
	copyDelay   map[string]time.Duration
	pollCalls   map[string]int
	pollErr     map[string]error
	tagCalls    map[string]int
	tagErr      map[string]error
	modifyCalls map[string]int
	modifyErr   map[string]error
}

func newFakeService() *fakeService {
	return &fakeService{
		source: awsec2.ImageDetails{
			ImageID:     "ami-1",
			Name:        "release-2024",
			Description: "release build",
			State:       awsec2.StateAvailable,
			Tags:        map[string]string{"env": "prod"},
		},
		permissions: []awsec2.LaunchPermission{{UserID: "123456789012"}},
		pendingTicks: 1,
		copyCalls:   make(map[string]int),
		copyErr:     make(map[string]error),
		copyDelay:   make(map[string]time.Duration),
		pollCalls:   make(map[string]int),
		pollErr:     make(map[string]error),
		tagCalls:    make(map[string]int),
		tagErr:      make(map[string]error),
		modifyCalls: make(map[string]int),
		modifyErr:   make(map[string]error),
	}
}

func (f *fakeService) DescribeImage(ctx context.Context, imageID, region string) (*awsec2.ImageDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if imageID == f.source.ImageID {
		f.describeSourceCalls++
		if f.describeSourceErr != nil {
			return nil, f.describeSourceErr
		}
		details := f.source
		return &details, nil
	}

	// Poll on a destination copy.
	f.pollCalls[region]++
	if err := f.pollErr[region]; err != nil {
		return nil, err
	}
	state := awsec2.StateAvailable
	if f.pollCalls[region] <= f.pendingTicks {
		state = awsec2.StatePending
	}
	return &awsec2.ImageDetails{ImageID: imageID, State: state}, nil
}

func (f *fakeService) DescribeLaunchPermissions(ctx context.Context, imageID, region string) ([]awsec2.LaunchPermission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.permissionCalls++
	if f.permissionErr != nil {
		return nil, f.permissionErr
	}
	return f.permissions, nil
}

func (f *fakeService) CopyImage(ctx context.Context, imageID, name, description, sourceRegion, destRegion string) (string, error) {
	f.mu.Lock()
	f.copyCalls[destRegion]++
	delay := f.copyDelay[destRegion]
	err := f.copyErr[destRegion]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.copySeq++
	return fmt.Sprintf("ami-copy-%d", f.copySeq), nil
}

func (f *fakeService) ApplyTags(ctx context.Context, imageID, region string, tags map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tagCalls[region]++
	return f.tagErr[region]
}

func (f *fakeService) ModifyLaunchPermissions(ctx context.Context, imageID, region string, add []awsec2.LaunchPermission) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.modifyCalls[region]++
	return f.modifyErr[region]
}

func (f *fakeService) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := f.describeSourceCalls + f.permissionCalls
	for _, n := range f.copyCalls {
		total += n
	}
	for _, n := range f.pollCalls {
		total += n
	}
	for _, n := range f.tagCalls {
		total += n
	}
	for _, n := range f.modifyCalls {
		total += n
	}
	return total
}
