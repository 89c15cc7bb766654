package clone

import (
	"errors"
	"testing"
)

func TestNewReport_Placeholders(t *testing.T) {
	report := NewReport([]string{"eu-west-1", "ap-south-1"})

	if report.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", report.Len())
	}

	for _, region := range report.Regions() {
		outcome, ok := report.Outcome(region)
		if !ok {
			t.Fatalf("missing entry for %s", region)
		}
		if outcome.Success {
			t.Errorf("placeholder for %s must be a failure", region)
		}
		if !errors.Is(outcome.Err, ErrNotAttempted) {
			t.Errorf("placeholder for %s must be ErrNotAttempted, got: %v", region, outcome.Err)
		}
	}
}

func TestNewReport_DuplicateRegionsShareOneEntry(t *testing.T) {
	report := NewReport([]string{"eu-west-1", "eu-west-1", "ap-south-1"})

	if report.Len() != 2 {
		t.Fatalf("expected duplicates to collapse to 2 entries, got %d", report.Len())
	}
	if regions := report.Regions(); regions[0] != "eu-west-1" || regions[1] != "ap-south-1" {
		t.Errorf("configuration order not preserved: %v", regions)
	}
}

func TestReport_SetReplacesPlaceholderOnce(t *testing.T) {
	report := NewReport([]string{"eu-west-1"})
	report.set("eu-west-1", RegionOutcome{Success: true, ImageID: "ami-copy-1"})

	outcome, _ := report.Outcome("eu-west-1")
	if !outcome.Success || outcome.ImageID != "ami-copy-1" || outcome.Err != nil {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
}

func TestReport_FirstErrorByConfigurationOrder(t *testing.T) {
	errFirst := errors.New("first region failed")
	errLast := errors.New("last region failed")

	report := NewReport([]string{"us-west-2", "eu-west-1", "ap-south-1"})
	// Completion order deliberately differs from configuration order.
	report.set("ap-south-1", RegionOutcome{Err: errLast})
	report.set("eu-west-1", RegionOutcome{Success: true, ImageID: "ami-copy-2"})
	report.set("us-west-2", RegionOutcome{Err: errFirst})

	if got := report.FirstError(); !errors.Is(got, errFirst) {
		t.Errorf("expected first error by configuration order, got: %v", got)
	}
}

func TestReport_FirstErrorNilWhenAllSucceed(t *testing.T) {
	report := NewReport([]string{"eu-west-1"})
	report.set("eu-west-1", RegionOutcome{Success: true, ImageID: "ami-copy-1"})

	if err := report.FirstError(); err != nil {
		t.Errorf("expected nil, got: %v", err)
	}
}
