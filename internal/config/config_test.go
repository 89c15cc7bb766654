package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.ProgressCheckInterval != 30 {
		t.Errorf("expected default interval 30, got %d", cfg.ProgressCheckInterval)
	}
	if cfg.RetryAttempts != 3 || cfg.RetryDelay != 2 {
		t.Errorf("unexpected retry defaults: attempts=%d delay=%d", cfg.RetryAttempts, cfg.RetryDelay)
	}
	if cfg.SQLitePath == "" || cfg.FSMDBPath == "" {
		t.Error("database paths must be defaulted")
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("AMICLONE_SOURCE_REGION", "us-west-2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.SourceRegion != "us-west-2" {
		t.Errorf("expected env override, got %q", cfg.SourceRegion)
	}
}

func TestValidate(t *testing.T) {
	cfg, _ := Load()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaulted config must validate, got: %v", err)
	}

	cfg.RetryAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero retry-attempts must be rejected")
	}
}

func TestCloneConfig(t *testing.T) {
	cfg := &Config{
		SourceImageID:         "ami-1",
		SourceRegion:          "us-east-1",
		DestinationRegions:    []string{"eu-west-1"},
		ProgressCheckInterval: 15,
	}

	cc := cfg.CloneConfig()
	if cc.SourceImageID != "ami-1" || cc.SourceRegion != "us-east-1" {
		t.Errorf("unexpected clone config: %+v", cc)
	}
	if cc.ProgressCheckInterval != 15*time.Second {
		t.Errorf("interval not converted to seconds: %v", cc.ProgressCheckInterval)
	}
}
