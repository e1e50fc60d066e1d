package main

import (
	"runtime"
	"testing"
)

func TestVersionDefaults(t *testing.T) {
	origVersion := Version
	origGitCommit := GitCommit
	origBuildDate := BuildDate

	Version = "0.1.0-test"
	GitCommit = "abc123"
	BuildDate = "2026-08-26"

	if Version != "0.1.0-test" {
		t.Errorf("Version = %q, want %q", Version, "0.1.0-test")
	}
	if GitCommit != "abc123" {
		t.Errorf("GitCommit = %q, want %q", GitCommit, "abc123")
	}
	if BuildDate != "2026-08-26" {
		t.Errorf("BuildDate = %q, want %q", BuildDate, "2026-08-26")
	}

	Version = origVersion
	GitCommit = origGitCommit
	BuildDate = origBuildDate
}

func TestVersionCommandExists(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Short == "" {
		t.Error("versionCmd.Short should not be empty")
	}
	if versionCmd.Run == nil {
		t.Error("versionCmd.Run should not be nil")
	}
}

func TestRegisteredCommands(t *testing.T) {
	want := map[string]bool{"version": false, "validate": false, "journal": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestRuntimeInfo(t *testing.T) {
	if runtime.Version() == "" {
		t.Error("runtime.Version() should not be empty")
	}
	if runtime.GOOS == "" || runtime.GOARCH == "" {
		t.Error("runtime GOOS/GOARCH should not be empty")
	}
}
