package clone

import (
	"fmt"
	"strings"
	"time"
)

// Config describes one clone operation. It is built in two stages: the caller
// produces a fully-defaulted value (CLI flags, environment, file), then
// Validate checks it as a pure function. The orchestrator treats it as
// immutable for the lifetime of the operation.
type Config struct {
	SourceImageID         string
	SourceRegion          string
	DestinationRegions    []string
	ProgressCheckInterval time.Duration
}

// Validate returns every violation found, so callers can report them all at
// once. An empty slice means the configuration is valid.
func (c Config) Validate() []string {
	var violations []string

	if c.SourceImageID == "" {
		violations = append(violations, "source image id must not be empty")
	}
	if c.SourceRegion == "" {
		violations = append(violations, "source region must not be empty")
	}
	if len(c.DestinationRegions) == 0 {
		violations = append(violations, "at least one destination region is required")
	}
	for i, region := range c.DestinationRegions {
		if region == "" {
			violations = append(violations, fmt.Sprintf("destination region %d must not be empty", i+1))
		}
	}
	if c.ProgressCheckInterval < 0 {
		violations = append(violations, "progress check interval must not be negative")
	}

	return violations
}

// ValidationError joins a violation list into one error value.
func ValidationError(violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(violations, "; "))
}
