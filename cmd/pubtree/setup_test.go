package main

import (
	"testing"

	"github.com/spf13/viper"
)

func TestBuildRequests_FromArgs(t *testing.T) {
	requests, err := buildRequests([]string{"@acme/tokens@^1.0.0", "left-pad"})
	if err != nil {
		t.Fatalf("buildRequests() error = %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("len(requests) = %d, want 2", len(requests))
	}
	if requests[0].Spec != "@acme/tokens@^1.0.0" || requests[1].Spec != "left-pad" {
		t.Errorf("requests = %+v", requests)
	}
}

func TestBuildRequests_FromConfig(t *testing.T) {
	viper.Set("packages", []map[string]interface{}{
		{
			"name":     "@acme/tokens",
			"patterns": []string{"**/*.json", "!internal/**"},
		},
	})
	defer viper.Set("packages", nil)

	requests, err := buildRequests(nil)
	if err != nil {
		t.Fatalf("buildRequests() error = %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("len(requests) = %d, want 1", len(requests))
	}
	if requests[0].Spec != "@acme/tokens" {
		t.Errorf("Spec = %q, want @acme/tokens", requests[0].Spec)
	}
	if len(requests[0].Patterns) != 2 {
		t.Errorf("Patterns = %v, want two entries", requests[0].Patterns)
	}
}

func TestBuildRequests_NothingConfigured(t *testing.T) {
	viper.Set("packages", nil)

	if _, err := buildRequests(nil); err == nil {
		t.Error("buildRequests() error = nil, want error with no packages anywhere")
	}
}

func TestOutputFormat(t *testing.T) {
	viper.Set("json", false)
	if got := outputFormat(); got != "pretty" {
		t.Errorf("outputFormat() = %q, want pretty", got)
	}

	viper.Set("json", true)
	defer viper.Set("json", false)
	if got := outputFormat(); got != "json" {
		t.Errorf("outputFormat() = %q, want json", got)
	}
}
