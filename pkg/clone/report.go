package clone

import (
	"errors"
	"sync"
)

// ErrNotAttempted is the placeholder failure cause for regions whose pipeline
// never ran because the operation stopped before the fan-out.
var ErrNotAttempted = errors.New("region not attempted")

// RegionOutcome is one region's terminal result. Once the region's pipeline
// has finished, exactly one of ImageID or Err is populated.
type RegionOutcome struct {
	Success bool
	ImageID string
	Err     error
}

// Report maps every configured destination region to its outcome. Entries are
// created up front as "not attempted" failures and replaced at most once as
// each region's pipeline finishes. Duplicate regions in the configuration
// share a single entry.
type Report struct {
	mu       sync.Mutex
	regions  []string
	outcomes map[string]RegionOutcome
}

// NewReport creates a report with a failure placeholder for every region,
// preserving configuration order and dropping duplicates.
func NewReport(regions []string) *Report {
	r := &Report{
		outcomes: make(map[string]RegionOutcome, len(regions)),
	}
	for _, region := range regions {
		if _, ok := r.outcomes[region]; ok {
			continue
		}
		r.regions = append(r.regions, region)
		r.outcomes[region] = RegionOutcome{Err: ErrNotAttempted}
	}
	return r
}

// set replaces a region's placeholder with its terminal outcome. Each region's
// pipeline owns its own key; no key is written twice.
func (r *Report) set(region string, outcome RegionOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[region] = outcome
}

// Outcome returns the recorded outcome for a region.
func (r *Report) Outcome(region string) (RegionOutcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	outcome, ok := r.outcomes[region]
	return outcome, ok
}

// Regions returns the report's keys in configuration order.
func (r *Report) Regions() []string {
	return r.regions
}

// Len returns the number of report entries.
func (r *Report) Len() int {
	return len(r.regions)
}

// FirstError returns the first failed region's error by configuration order,
// not by completion time, or nil when every region succeeded.
func (r *Report) FirstError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, region := range r.regions {
		if outcome := r.outcomes[region]; !outcome.Success {
			return outcome.Err
		}
	}
	return nil
}
